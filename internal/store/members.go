package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"psheikomaniac/club-ledger/internal/models"
)

// InsertMember persists a new member record.
func (q queries) InsertMember(ctx context.Context, m models.Member) error {
	query := `
		INSERT INTO members (id, name, nickname, active, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := q.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Nickname, m.Active,
		m.Balance.String(),
		m.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetMember retrieves a member by id. Returns nil when no member exists.
func (q queries) GetMember(ctx context.Context, id string) (*models.Member, error) {
	return q.getMember(ctx,
		"SELECT id, name, nickname, active, balance, created_at FROM members WHERE id = ?", id)
}

// GetMemberByName retrieves a member by exact name match. Returns nil when
// no member exists.
func (q queries) GetMemberByName(ctx context.Context, name string) (*models.Member, error) {
	return q.getMember(ctx,
		"SELECT id, name, nickname, active, balance, created_at FROM members WHERE name = ?", name)
}

func (q queries) getMember(ctx context.Context, query string, arg any) (*models.Member, error) {
	var (
		m         models.Member
		balance   string
		createdAt string
	)

	err := q.db.QueryRowContext(ctx, query, arg).Scan(
		&m.ID, &m.Name, &m.Nickname, &m.Active, &balance, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query member: %w", err)
	}

	m.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse member balance: %w", err)
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &m, nil
}

// ListMembers returns all members ordered by name.
func (q queries) ListMembers(ctx context.Context) ([]models.Member, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, name, nickname, active, balance, created_at FROM members ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var (
			m         models.Member
			balance   string
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Nickname, &m.Active, &balance, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("failed to parse member balance: %w", err)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpdateMemberBalance rewrites the cached balance mirror for a member.
func (q queries) UpdateMemberBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE members SET balance = ? WHERE id = ?", balance.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update member balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s does not exist", id)
	}
	return nil
}
