// Package pay handles payment commands
package pay

import (
	"time"

	"github.com/spf13/cobra"

	"psheikomaniac/club-ledger/cmd/root"
	"psheikomaniac/club-ledger/internal/currencyutils"
	"psheikomaniac/club-ledger/internal/dateutils"
	"psheikomaniac/club-ledger/internal/models"
)

var (
	memberName   string
	amount       string
	description  string
	date         string
	kindName     string
	debtID       string
	createMember bool
)

// Cmd represents the pay command
var Cmd = &cobra.Command{
	Use:   "pay",
	Short: "Record a payment",
	Long: `Record a payment. Without --id, the amount is credited to the member
and raises their balance. With --kind and --id, the amount is applied to
that specific debt instead, marking it paid once fully covered.

Examples:
  club-ledger pay -m "Max Mustermann" -a 20.00
  club-ledger pay -k fine -i 6f1c... -a 2.50`,
	Run: payFunc,
}

func init() {
	Cmd.Flags().StringVarP(&memberName, "member", "m", "", "Member name (for a credit payment)")
	Cmd.Flags().StringVarP(&amount, "amount", "a", "", "Payment amount, e.g. 20.00 (required)")
	Cmd.Flags().StringVarP(&description, "description", "n", "", "Payment description")
	Cmd.Flags().StringVarP(&date, "date", "t", "", "Payment date as DD.MM.YYYY (default today)")
	Cmd.Flags().StringVarP(&kindName, "kind", "k", "", "Debt kind for a targeted payment: fine, due_payment or beverage")
	Cmd.Flags().StringVarP(&debtID, "id", "i", "", "Debt ID for a targeted payment")
	Cmd.Flags().BoolVar(&createMember, "create-member", false, "Create the member if none matches")
	_ = Cmd.MarkFlagRequired("amount")
}

func payFunc(cmd *cobra.Command, args []string) {
	parsedAmount, err := currencyutils.ParseAmount(amount)
	if err != nil {
		root.Log.Fatalf("Invalid amount %q: %v", amount, err)
	}

	st, svc := root.OpenService()
	defer st.Close()

	if debtID != "" {
		kind := models.DebtKind(kindName)
		switch kind {
		case models.KindFine, models.KindDuePayment, models.KindBeverage:
		default:
			root.Log.Fatalf("Unknown debt kind %q (expected fine, due_payment or beverage)", kindName)
		}

		details, err := svc.ApplyAdditionalPayment(cmd.Context(), kind, debtID, parsedAmount)
		if err != nil {
			root.Log.Fatalf("Error applying payment to %s %s: %v", kindName, debtID, err)
		}
		if details.Paid {
			root.Log.Infof("%s %s is now fully paid", kindName, debtID)
		} else {
			root.Log.Infof("%s %s now has %s outstanding", kindName, debtID,
				currencyutils.FormatAmount(details.Outstanding(), ""))
		}
		return
	}

	if memberName == "" {
		root.Log.Fatal("Either --member or --id is required")
	}

	payDate := time.Now().UTC().Truncate(24 * time.Hour)
	if date != "" {
		payDate, err = dateutils.ParseDayMonthYear(date)
		if err != nil {
			root.Log.Fatalf("Invalid date %q: %v", date, err)
		}
	}

	member := root.ResolveMember(cmd, st, svc, memberName, createMember)

	payment, err := svc.CreatePayment(cmd.Context(), member.ID, parsedAmount, description, payDate)
	if err != nil {
		root.Log.Fatalf("Error recording payment: %v", err)
	}
	root.Log.WithField("member", member.Name).Infof("Payment of %s recorded",
		currencyutils.FormatAmount(payment.Amount, ""))
}
