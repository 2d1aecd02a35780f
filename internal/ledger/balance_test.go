package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"psheikomaniac/club-ledger/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func unpaidDebt(amount string) models.DebtDetails {
	return models.DebtDetails{ID: "d", MemberID: "m", Amount: dec(amount)}
}

func paidDebt(amount string) models.DebtDetails {
	paidAt := time.Now()
	paid := dec(amount)
	return models.DebtDetails{
		ID: "d", MemberID: "m", Amount: dec(amount),
		Paid: true, AmountPaid: &paid, PaidAt: &paidAt,
	}
}

func partialDebt(amount, covered string) models.DebtDetails {
	part := dec(covered)
	return models.DebtDetails{ID: "d", MemberID: "m", Amount: dec(amount), AmountPaid: &part}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		ledger   MemberLedger
		expected string
	}{
		{
			"Empty ledger",
			MemberLedger{},
			"0",
		},
		{
			"Payments only",
			MemberLedger{Payments: []models.Payment{
				{Amount: dec("20.00")},
				{Amount: dec("5.50")},
			}},
			"25.50",
		},
		{
			"Unpaid fine debits in full",
			MemberLedger{Fines: []models.Fine{{DebtDetails: unpaidDebt("10.00")}}},
			"-10.00",
		},
		{
			"Paid fine contributes nothing",
			MemberLedger{
				Payments: []models.Payment{{Amount: dec("10.00")}},
				Fines:    []models.Fine{{DebtDetails: paidDebt("7.00")}},
			},
			"10.00",
		},
		{
			"Partially paid fine debits the remainder",
			MemberLedger{Fines: []models.Fine{{DebtDetails: partialDebt("10.00", "4.00")}}},
			"-6.00",
		},
		{
			"Exempt due payment is excluded",
			MemberLedger{DuePayments: []models.DuePayment{
				{DebtDetails: unpaidDebt("50.00"), DueID: "due-1", Exempt: true},
			}},
			"0",
		},
		{
			"Due payment of archived due is excluded",
			MemberLedger{
				DuePayments: []models.DuePayment{
					{DebtDetails: unpaidDebt("50.00"), DueID: "due-1"},
				},
				Dues: map[string]models.Due{
					"due-1": {ID: "due-1", Active: true, Archived: true},
				},
			},
			"0",
		},
		{
			"Due payment of inactive due is excluded",
			MemberLedger{
				DuePayments: []models.DuePayment{
					{DebtDetails: unpaidDebt("50.00"), DueID: "due-1"},
				},
				Dues: map[string]models.Due{
					"due-1": {ID: "due-1", Active: false},
				},
			},
			"0",
		},
		{
			"Due payment of unknown due still counts",
			MemberLedger{DuePayments: []models.DuePayment{
				{DebtDetails: unpaidDebt("50.00"), DueID: "due-gone"},
			}},
			"-50.00",
		},
		{
			"Mixed ledger",
			MemberLedger{
				Payments: []models.Payment{{Amount: dec("30.00")}},
				Fines:    []models.Fine{{DebtDetails: unpaidDebt("5.00")}},
				DuePayments: []models.DuePayment{
					{DebtDetails: unpaidDebt("50.00"), DueID: "due-1"},
				},
				Consumptions: []models.BeverageConsumption{
					{DebtDetails: partialDebt("2.00", "0.50")},
				},
				Dues: map[string]models.Due{
					"due-1": {ID: "due-1", Active: true},
				},
			},
			"-26.50",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Calculate(tc.ledger)
			assert.True(t, dec(tc.expected).Equal(result), "Expected %s but got %s", tc.expected, result)
		})
	}
}
