// Package fine handles fine creation commands
package fine

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"psheikomaniac/club-ledger/cmd/root"
	"psheikomaniac/club-ledger/internal/currencyutils"
	"psheikomaniac/club-ledger/internal/dateutils"
	"psheikomaniac/club-ledger/internal/models"
)

var (
	memberName   string
	reason       string
	amount       string
	date         string
	createMember bool
	predefine    bool
)

// Cmd represents the fine command
var Cmd = &cobra.Command{
	Use:   "fine",
	Short: "Record a fine for a member",
	Long: `Record a fine for a member. If the member holds credit, the fine is
settled from it immediately, in full or in part.

Without --amount, the reason is looked up in the predefined fine catalog.
With --predefine, the reason and amount are saved to that catalog.

Example:
  club-ledger fine -m "Max Mustermann" -r "Late to training" -a 5.00`,
	Run: fineFunc,
}

func init() {
	Cmd.Flags().StringVarP(&memberName, "member", "m", "", "Member name (required)")
	Cmd.Flags().StringVarP(&reason, "reason", "r", "", "Fine reason (required)")
	Cmd.Flags().StringVarP(&amount, "amount", "a", "", "Fine amount, e.g. 5.00 (default from predefined catalog)")
	Cmd.Flags().StringVarP(&date, "date", "t", "", "Fine date as DD.MM.YYYY (default today)")
	Cmd.Flags().BoolVar(&createMember, "create-member", false, "Create the member if none matches")
	Cmd.Flags().BoolVar(&predefine, "predefine", false, "Save reason and amount as a predefined fine")
	_ = Cmd.MarkFlagRequired("member")
	_ = Cmd.MarkFlagRequired("reason")
}

func fineFunc(cmd *cobra.Command, args []string) {
	fineDate := time.Now().UTC().Truncate(24 * time.Hour)
	if date != "" {
		var err error
		fineDate, err = dateutils.ParseDayMonthYear(date)
		if err != nil {
			root.Log.Fatalf("Invalid date %q: %v", date, err)
		}
	}

	st, svc := root.OpenService()
	defer st.Close()

	var parsedAmount decimal.Decimal
	if amount != "" {
		var err error
		parsedAmount, err = currencyutils.ParseAmount(amount)
		if err != nil {
			root.Log.Fatalf("Invalid amount %q: %v", amount, err)
		}
	} else {
		predefined, err := st.ListPredefinedFines(cmd.Context())
		if err != nil {
			root.Log.Fatalf("Error loading predefined fines: %v", err)
		}
		found := false
		for _, pf := range predefined {
			if strings.EqualFold(pf.Name, reason) {
				parsedAmount = pf.Amount
				found = true
				break
			}
		}
		if !found {
			root.Log.Fatalf("No predefined fine named %q, give --amount explicitly", reason)
		}
	}

	if predefine && amount != "" {
		pf := models.PredefinedFine{ID: uuid.NewString(), Name: reason, Amount: parsedAmount}
		if err := st.InsertPredefinedFine(cmd.Context(), pf); err != nil {
			root.Log.Fatalf("Error saving predefined fine %q: %v", reason, err)
		}
		root.Log.WithField("fine", reason).Info("Saved predefined fine")
	}

	member := root.ResolveMember(cmd, st, svc, memberName, createMember)

	created, err := svc.CreateFine(cmd.Context(), member.ID, reason, parsedAmount, fineDate)
	if err != nil {
		root.Log.Fatalf("Error creating fine: %v", err)
	}

	entry := root.Log.WithField("member", member.Name)
	switch {
	case created.Paid:
		entry.Infof("Fine recorded and settled from credit (%s)", currencyutils.FormatAmount(created.Amount, ""))
	case created.AmountPaid != nil:
		entry.Infof("Fine recorded, %s of %s settled from credit",
			currencyutils.FormatAmount(*created.AmountPaid, ""), currencyutils.FormatAmount(created.Amount, ""))
	default:
		entry.Infof("Fine recorded (%s)", currencyutils.FormatAmount(created.Amount, ""))
	}
}
