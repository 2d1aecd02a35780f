package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtKind identifies which ledger collection a record belongs to.
type DebtKind string

const (
	KindFine       DebtKind = "fine"
	KindDuePayment DebtKind = "due_payment"
	KindBeverage   DebtKind = "beverage"
	KindPayment    DebtKind = "payment"
)

// DebtDetails is the shared paid-state shape of Fine, DuePayment and
// BeverageConsumption.
//
// Invariant: if Paid is true the outstanding amount is zero regardless of
// AmountPaid. If Paid is false, outstanding = Amount - AmountPaid (treating
// nil as zero) and stays within [0, Amount].
type DebtDetails struct {
	ID         string
	MemberID   string
	Amount     decimal.Decimal
	Paid       bool
	AmountPaid *decimal.Decimal
	PaidAt     *time.Time
	CreatedAt  time.Time
}

// Outstanding returns the portion of the debt not yet covered.
func (d *DebtDetails) Outstanding() decimal.Decimal {
	if d.Paid {
		return decimal.Zero
	}
	if d.AmountPaid != nil {
		return d.Amount.Sub(*d.AmountPaid)
	}
	return d.Amount
}

// Fine is a one-off debt assigned to a member for a rule infraction.
type Fine struct {
	DebtDetails
	Reason string
	Date   time.Time
}

// DuePayment is one member's instance of a Due definition.
// Exempt means the due does not apply to this member at all: it is
// excluded from balance and cannot be toggled.
type DuePayment struct {
	DebtDetails
	DueID  string
	Exempt bool
}

// BeverageConsumption is a debt created when a member consumes a beverage.
// BeverageID references a catalog entry for interactively recorded drinks;
// imported rows only carry the resolved Category.
type BeverageConsumption struct {
	DebtDetails
	BeverageID string
	Category   string
	Date       time.Time
}

// Payment is a credit recorded against a member. A payment is realized
// balance by construction; there is no unpaid payment state. Storno
// entries from transaction exports keep their negative amount.
type Payment struct {
	ID          string
	MemberID    string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	CreatedAt   time.Time
}
