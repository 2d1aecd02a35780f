// Package toggle handles paid-status toggling commands
package toggle

import (
	"github.com/spf13/cobra"

	"psheikomaniac/club-ledger/cmd/root"
	"psheikomaniac/club-ledger/internal/models"
)

var (
	kindName string
	debtID   string
	unpaid   bool
)

// Cmd represents the toggle command
var Cmd = &cobra.Command{
	Use:   "toggle",
	Short: "Flip the paid status of a debt",
	Long: `Mark a fine, due payment or beverage consumption as paid, or revert
it to unpaid with --unpaid. Payments and exempt dues cannot be toggled.

Example:
  club-ledger toggle -k fine -i 6f1c...`,
	Run: toggleFunc,
}

func init() {
	Cmd.Flags().StringVarP(&kindName, "kind", "k", "", "Debt kind: fine, due_payment or beverage (required)")
	Cmd.Flags().StringVarP(&debtID, "id", "i", "", "Debt ID (required)")
	Cmd.Flags().BoolVarP(&unpaid, "unpaid", "u", false, "Revert to unpaid instead of marking paid")
	_ = Cmd.MarkFlagRequired("kind")
	_ = Cmd.MarkFlagRequired("id")
}

func toggleFunc(cmd *cobra.Command, args []string) {
	kind := models.DebtKind(kindName)
	switch kind {
	case models.KindFine, models.KindDuePayment, models.KindBeverage:
	default:
		root.Log.Fatalf("Unknown debt kind %q (expected fine, due_payment or beverage)", kindName)
	}

	st, svc := root.OpenService()
	defer st.Close()

	details, err := svc.Toggle(cmd.Context(), kind, debtID, !unpaid)
	if err != nil {
		root.Log.Fatalf("Error toggling %s %s: %v", kindName, debtID, err)
	}

	if details.Paid {
		root.Log.Infof("%s %s marked as paid", kindName, debtID)
	} else {
		root.Log.Infof("%s %s reverted to unpaid", kindName, debtID)
	}
}
