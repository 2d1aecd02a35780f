package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Due is a recurring charge definition (e.g. a season fee).
// DuePayments of an archived or inactive due are excluded from balance
// even when not individually exempt.
type Due struct {
	ID        string
	Name      string
	Amount    decimal.Decimal
	Active    bool
	Archived  bool
	DueDate   time.Time
	CreatedAt time.Time
}

// Beverage is a priced catalog entry consulted when recording a drink.
type Beverage struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Category string
}

// PredefinedFine is a catalog entry pairing a standard reason with its
// standard amount.
type PredefinedFine struct {
	ID     string
	Name   string
	Amount decimal.Decimal
}
