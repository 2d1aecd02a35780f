package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RowType is the transaction kind an import row was classified into.
type RowType string

const (
	RowFine    RowType = "FINE"
	RowDrink   RowType = "DRINK"
	RowPayment RowType = "PAYMENT"
	// RowDue marks rows from the dues export, which carry their kind
	// structurally instead of through free-text classification.
	RowDue RowType = "DUE"
)

// Schema names one of the known external export layouts.
type Schema string

const (
	SchemaDues         Schema = "dues"
	SchemaPunishments  Schema = "punishments"
	SchemaTransactions Schema = "transactions"
)

// ClassifiedRow is the typed, validated result of classifying one raw
// export row. Amount is already converted from cents to major units.
type ClassifiedRow struct {
	Type       RowType
	PlayerName string
	Amount     decimal.Decimal
	Date       time.Time
	Paid       bool
	PaidAt     *time.Time
	// BeverageCategory is set for DRINK rows only.
	BeverageCategory string
	// DueName is set for rows from the dues export; it names the Due
	// definition the row belongs to.
	DueName string
	// Reason keeps the free-text that drove classification, used as the
	// fine reason or payment description.
	Reason string
}
