// Package ledger implements the club ledger core: the balance calculation,
// the auto-payment allocation applied when debts are created, and the
// transactional service operations that mutate debt records.
package ledger

import (
	"github.com/shopspring/decimal"

	"psheikomaniac/club-ledger/internal/models"
)

// MemberLedger is the complete set of one member's records, as loaded from
// the store. Dues holds the due definitions referenced by the DuePayments,
// keyed by id, so archived or inactive dues can be excluded.
type MemberLedger struct {
	Payments     []models.Payment
	Fines        []models.Fine
	DuePayments  []models.DuePayment
	Consumptions []models.BeverageConsumption
	Dues         map[string]models.Due
}

// Calculate derives the member's balance from the ledger alone:
// paid payment amounts minus the outstanding portion of every counting
// debt. Exempt due payments and due payments of archived or inactive dues
// contribute nothing. The result is negative when the member owes money.
func Calculate(l MemberLedger) decimal.Decimal {
	balance := decimal.Zero

	for _, p := range l.Payments {
		balance = balance.Add(p.Amount)
	}

	for i := range l.Fines {
		balance = balance.Sub(l.Fines[i].Outstanding())
	}

	for i := range l.DuePayments {
		dp := &l.DuePayments[i]
		if dp.Exempt {
			continue
		}
		if due, ok := l.Dues[dp.DueID]; ok && (due.Archived || !due.Active) {
			continue
		}
		balance = balance.Sub(dp.Outstanding())
	}

	for i := range l.Consumptions {
		balance = balance.Sub(l.Consumptions[i].Outstanding())
	}

	return balance
}
