package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"psheikomaniac/club-ledger/internal/models"
)

func debtTable(kind models.DebtKind) (string, error) {
	switch kind {
	case models.KindFine:
		return "fines", nil
	case models.KindDuePayment:
		return "due_payments", nil
	case models.KindBeverage:
		return "beverage_consumptions", nil
	default:
		return "", fmt.Errorf("no debt table for kind %q", kind)
	}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	return &d, nil
}

// InsertFine persists a new fine record.
func (q queries) InsertFine(ctx context.Context, f models.Fine) error {
	query := `
		INSERT INTO fines (id, member_id, reason, amount, paid, amount_paid, paid_at, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.db.ExecContext(ctx, query,
		f.ID, f.MemberID, f.Reason, f.Amount.String(),
		f.Paid, nullDecimal(f.AmountPaid), nullTime(f.PaidAt),
		f.Date.Format(time.RFC3339), f.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fine: %w", err)
	}
	return nil
}

// GetFine retrieves a fine by id. Returns nil when no fine exists.
func (q queries) GetFine(ctx context.Context, id string) (*models.Fine, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, member_id, reason, amount, paid, amount_paid, paid_at, date, created_at
		FROM fines WHERE id = ?`, id)

	f, err := scanFine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListFinesByMember returns all fines of one member.
func (q queries) ListFinesByMember(ctx context.Context, memberID string) ([]models.Fine, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, member_id, reason, amount, paid, amount_paid, paid_at, date, created_at
		FROM fines WHERE member_id = ? ORDER BY date ASC, created_at ASC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fines: %w", err)
	}
	defer rows.Close()

	var fines []models.Fine
	for rows.Next() {
		f, err := scanFine(rows)
		if err != nil {
			return nil, err
		}
		fines = append(fines, *f)
	}
	return fines, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFine(row rowScanner) (*models.Fine, error) {
	var (
		f          models.Fine
		amount     string
		amountPaid sql.NullString
		paidAt     sql.NullString
		date       string
		createdAt  string
	)

	err := row.Scan(&f.ID, &f.MemberID, &f.Reason, &amount, &f.Paid, &amountPaid, &paidAt, &date, &createdAt)
	if err != nil {
		return nil, err
	}

	f.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fine amount: %w", err)
	}
	if f.AmountPaid, err = parseNullDecimal(amountPaid); err != nil {
		return nil, err
	}
	f.PaidAt = parseNullTime(paidAt)
	f.Date, _ = time.Parse(time.RFC3339, date)
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &f, nil
}

// InsertDuePayment persists a new due payment record.
func (q queries) InsertDuePayment(ctx context.Context, dp models.DuePayment) error {
	query := `
		INSERT INTO due_payments (id, member_id, due_id, amount, paid, amount_paid, paid_at, exempt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.db.ExecContext(ctx, query,
		dp.ID, dp.MemberID, dp.DueID, dp.Amount.String(),
		dp.Paid, nullDecimal(dp.AmountPaid), nullTime(dp.PaidAt),
		dp.Exempt, dp.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert due payment: %w", err)
	}
	return nil
}

// GetDuePayment retrieves a due payment by id. Returns nil when none exists.
func (q queries) GetDuePayment(ctx context.Context, id string) (*models.DuePayment, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, member_id, due_id, amount, paid, amount_paid, paid_at, exempt, created_at
		FROM due_payments WHERE id = ?`, id)

	dp, err := scanDuePayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dp, nil
}

// ListDuePaymentsByMember returns all due payments of one member.
func (q queries) ListDuePaymentsByMember(ctx context.Context, memberID string) ([]models.DuePayment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, member_id, due_id, amount, paid, amount_paid, paid_at, exempt, created_at
		FROM due_payments WHERE member_id = ? ORDER BY created_at ASC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query due payments: %w", err)
	}
	defer rows.Close()

	var duePayments []models.DuePayment
	for rows.Next() {
		dp, err := scanDuePayment(rows)
		if err != nil {
			return nil, err
		}
		duePayments = append(duePayments, *dp)
	}
	return duePayments, rows.Err()
}

func scanDuePayment(row rowScanner) (*models.DuePayment, error) {
	var (
		dp         models.DuePayment
		amount     string
		amountPaid sql.NullString
		paidAt     sql.NullString
		createdAt  string
	)

	err := row.Scan(&dp.ID, &dp.MemberID, &dp.DueID, &amount, &dp.Paid, &amountPaid, &paidAt, &dp.Exempt, &createdAt)
	if err != nil {
		return nil, err
	}

	dp.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse due payment amount: %w", err)
	}
	if dp.AmountPaid, err = parseNullDecimal(amountPaid); err != nil {
		return nil, err
	}
	dp.PaidAt = parseNullTime(paidAt)
	dp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &dp, nil
}

// InsertConsumption persists a new beverage consumption record.
func (q queries) InsertConsumption(ctx context.Context, c models.BeverageConsumption) error {
	query := `
		INSERT INTO beverage_consumptions (id, member_id, beverage_id, category, amount, paid, amount_paid, paid_at, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.db.ExecContext(ctx, query,
		c.ID, c.MemberID, c.BeverageID, c.Category, c.Amount.String(),
		c.Paid, nullDecimal(c.AmountPaid), nullTime(c.PaidAt),
		c.Date.Format(time.RFC3339), c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert beverage consumption: %w", err)
	}
	return nil
}

// GetConsumption retrieves a beverage consumption by id. Returns nil when
// none exists.
func (q queries) GetConsumption(ctx context.Context, id string) (*models.BeverageConsumption, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, member_id, beverage_id, category, amount, paid, amount_paid, paid_at, date, created_at
		FROM beverage_consumptions WHERE id = ?`, id)

	c, err := scanConsumption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListConsumptionsByMember returns all beverage consumptions of one member.
func (q queries) ListConsumptionsByMember(ctx context.Context, memberID string) ([]models.BeverageConsumption, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, member_id, beverage_id, category, amount, paid, amount_paid, paid_at, date, created_at
		FROM beverage_consumptions WHERE member_id = ? ORDER BY date ASC, created_at ASC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query beverage consumptions: %w", err)
	}
	defer rows.Close()

	var consumptions []models.BeverageConsumption
	for rows.Next() {
		c, err := scanConsumption(rows)
		if err != nil {
			return nil, err
		}
		consumptions = append(consumptions, *c)
	}
	return consumptions, rows.Err()
}

func scanConsumption(row rowScanner) (*models.BeverageConsumption, error) {
	var (
		c          models.BeverageConsumption
		amount     string
		amountPaid sql.NullString
		paidAt     sql.NullString
		date       string
		createdAt  string
	)

	err := row.Scan(&c.ID, &c.MemberID, &c.BeverageID, &c.Category, &amount, &c.Paid, &amountPaid, &paidAt, &date, &createdAt)
	if err != nil {
		return nil, err
	}

	c.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse consumption amount: %w", err)
	}
	if c.AmountPaid, err = parseNullDecimal(amountPaid); err != nil {
		return nil, err
	}
	c.PaidAt = parseNullTime(paidAt)
	c.Date, _ = time.Parse(time.RFC3339, date)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

// UpdateDebtStatus rewrites the paid-state fields of a debt record.
func (q queries) UpdateDebtStatus(ctx context.Context, kind models.DebtKind, id string, paid bool, amountPaid *decimal.Decimal, paidAt *time.Time) error {
	table, err := debtTable(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET paid = ?, amount_paid = ?, paid_at = ? WHERE id = ?", table)
	res, err := q.db.ExecContext(ctx, query, paid, nullDecimal(amountPaid), nullTime(paidAt), id)
	if err != nil {
		return fmt.Errorf("failed to update %s status: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s record %s does not exist", table, id)
	}
	return nil
}

// DeleteDebt removes a debt record.
func (q queries) DeleteDebt(ctx context.Context, kind models.DebtKind, id string) error {
	table, err := debtTable(kind)
	if err != nil {
		return err
	}

	_, err = q.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// InsertPayment persists a new payment record.
func (q queries) InsertPayment(ctx context.Context, p models.Payment) error {
	query := `
		INSERT INTO payments (id, member_id, amount, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := q.db.ExecContext(ctx, query,
		p.ID, p.MemberID, p.Amount.String(), p.Description,
		p.Date.Format(time.RFC3339), p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// ListPaymentsByMember returns all payments of one member.
func (q queries) ListPaymentsByMember(ctx context.Context, memberID string) ([]models.Payment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, member_id, amount, description, date, created_at
		FROM payments WHERE member_id = ? ORDER BY date ASC, created_at ASC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var (
			p         models.Payment
			amount    string
			date      string
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.MemberID, &amount, &p.Description, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse payment amount: %w", err)
		}
		p.Date, _ = time.Parse(time.RFC3339, date)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
