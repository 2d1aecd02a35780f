// Package models provides the data structures used throughout the application.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member represents a club member that debts and payments are booked against.
type Member struct {
	ID       string
	Name     string
	Nickname string
	Active   bool
	// Balance is a cached mirror of the derived ledger balance. It is kept
	// in lock-step by every mutation but is never the source of truth;
	// ledger.Calculate can always rebuild it from the records alone.
	Balance   decimal.Decimal
	CreatedAt time.Time
}
