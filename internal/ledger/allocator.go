package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation is the paid-state decided for a newly created debt.
type Allocation struct {
	Paid       bool
	AmountPaid *decimal.Decimal
	PaidAt     *time.Time
}

// Allocate decides the initial paid/partial/unpaid state of a debt of the
// given amount, using the member's balance at the instant of creation.
// The decision is local and one-shot: it never looks at the member's other
// outstanding debts.
//
//	balance >= amount  -> fully paid
//	0 < balance < amount -> partially paid with the whole balance
//	balance <= 0       -> unpaid, no partial amount recorded
func Allocate(amount, balance decimal.Decimal, now time.Time) (Allocation, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Allocation{}, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	switch {
	case balance.GreaterThanOrEqual(amount):
		paidAmount := amount
		paidAt := now
		return Allocation{Paid: true, AmountPaid: &paidAmount, PaidAt: &paidAt}, nil
	case balance.GreaterThan(decimal.Zero):
		partial := balance
		return Allocation{Paid: false, AmountPaid: &partial}, nil
	default:
		return Allocation{Paid: false}, nil
	}
}
