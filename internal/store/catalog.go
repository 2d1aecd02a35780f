package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"psheikomaniac/club-ledger/internal/models"
)

// InsertDue persists a new due definition.
func (q queries) InsertDue(ctx context.Context, d models.Due) error {
	query := `
		INSERT INTO dues (id, name, amount, active, archived, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.db.ExecContext(ctx, query,
		d.ID, d.Name, d.Amount.String(), d.Active, d.Archived,
		d.DueDate.Format(time.RFC3339), d.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert due: %w", err)
	}
	return nil
}

// GetDue retrieves a due definition by id. Returns nil when none exists.
func (q queries) GetDue(ctx context.Context, id string) (*models.Due, error) {
	return q.getDue(ctx,
		"SELECT id, name, amount, active, archived, due_date, created_at FROM dues WHERE id = ?", id)
}

// GetDueByName retrieves a due definition by name. Returns nil when none exists.
func (q queries) GetDueByName(ctx context.Context, name string) (*models.Due, error) {
	return q.getDue(ctx,
		"SELECT id, name, amount, active, archived, due_date, created_at FROM dues WHERE name = ?", name)
}

func (q queries) getDue(ctx context.Context, query string, arg any) (*models.Due, error) {
	var (
		d         models.Due
		amount    string
		dueDate   string
		createdAt string
	)

	err := q.db.QueryRowContext(ctx, query, arg).Scan(
		&d.ID, &d.Name, &amount, &d.Active, &d.Archived, &dueDate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query due: %w", err)
	}

	d.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse due amount: %w", err)
	}
	d.DueDate, _ = time.Parse(time.RFC3339, dueDate)
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &d, nil
}

// ListDues returns all due definitions.
func (q queries) ListDues(ctx context.Context) ([]models.Due, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, name, amount, active, archived, due_date, created_at FROM dues ORDER BY due_date ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query dues: %w", err)
	}
	defer rows.Close()

	var dues []models.Due
	for rows.Next() {
		var (
			d         models.Due
			amount    string
			dueDate   string
			createdAt string
		)
		if err := rows.Scan(&d.ID, &d.Name, &amount, &d.Active, &d.Archived, &dueDate, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan due: %w", err)
		}
		d.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse due amount: %w", err)
		}
		d.DueDate, _ = time.Parse(time.RFC3339, dueDate)
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		dues = append(dues, d)
	}
	return dues, rows.Err()
}

// InsertBeverage persists a new beverage catalog entry.
func (q queries) InsertBeverage(ctx context.Context, b models.Beverage) error {
	query := "INSERT INTO beverages (id, name, price, category) VALUES (?, ?, ?, ?)"

	_, err := q.db.ExecContext(ctx, query, b.ID, b.Name, b.Price.String(), b.Category)
	if err != nil {
		return fmt.Errorf("failed to insert beverage: %w", err)
	}
	return nil
}

// GetBeverage retrieves a beverage by id. Returns nil when none exists.
func (q queries) GetBeverage(ctx context.Context, id string) (*models.Beverage, error) {
	return q.getBeverage(ctx,
		"SELECT id, name, price, category FROM beverages WHERE id = ?", id)
}

// GetBeverageByName retrieves a beverage by name. Returns nil when none exists.
func (q queries) GetBeverageByName(ctx context.Context, name string) (*models.Beverage, error) {
	return q.getBeverage(ctx,
		"SELECT id, name, price, category FROM beverages WHERE name = ?", name)
}

func (q queries) getBeverage(ctx context.Context, query string, arg any) (*models.Beverage, error) {
	var (
		b     models.Beverage
		price string
	)

	err := q.db.QueryRowContext(ctx, query, arg).Scan(&b.ID, &b.Name, &price, &b.Category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query beverage: %w", err)
	}

	b.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse beverage price: %w", err)
	}
	return &b, nil
}

// InsertPredefinedFine persists a new predefined fine catalog entry.
func (q queries) InsertPredefinedFine(ctx context.Context, pf models.PredefinedFine) error {
	query := "INSERT INTO predefined_fines (id, name, amount) VALUES (?, ?, ?)"

	_, err := q.db.ExecContext(ctx, query, pf.ID, pf.Name, pf.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to insert predefined fine: %w", err)
	}
	return nil
}

// ListPredefinedFines returns the predefined fine catalog.
func (q queries) ListPredefinedFines(ctx context.Context) ([]models.PredefinedFine, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, name, amount FROM predefined_fines ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query predefined fines: %w", err)
	}
	defer rows.Close()

	var fines []models.PredefinedFine
	for rows.Next() {
		var (
			pf     models.PredefinedFine
			amount string
		)
		if err := rows.Scan(&pf.ID, &pf.Name, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan predefined fine: %w", err)
		}
		pf.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse predefined fine amount: %w", err)
		}
		fines = append(fines, pf)
	}
	return fines, rows.Err()
}
