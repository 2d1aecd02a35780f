// Package due handles due payment commands
package due

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"psheikomaniac/club-ledger/cmd/root"
	"psheikomaniac/club-ledger/internal/currencyutils"
	"psheikomaniac/club-ledger/internal/dateutils"
	"psheikomaniac/club-ledger/internal/ledger"
	"psheikomaniac/club-ledger/internal/models"
)

var (
	memberName   string
	dueName      string
	status       string
	amount       string
	dueDate      string
	createMember bool
)

// Cmd represents the due command
var Cmd = &cobra.Command{
	Use:   "due",
	Short: "Record a due payment for a member",
	Long: `Record a membership due for a member, either settled (paid) or
waived (exempt). An unknown due definition is added to the catalog when
--amount is given.

Example:
  club-ledger due -m "Max Mustermann" -n "Jahresbeitrag 2026" --status paid`,
	Run: dueFunc,
}

func init() {
	Cmd.Flags().StringVarP(&memberName, "member", "m", "", "Member name (required)")
	Cmd.Flags().StringVarP(&dueName, "name", "n", "", "Due name (required)")
	Cmd.Flags().StringVarP(&status, "status", "s", "paid", "Due status: paid or exempt")
	Cmd.Flags().StringVarP(&amount, "amount", "a", "", "Catalog amount for a new due, e.g. 50.00")
	Cmd.Flags().StringVarP(&dueDate, "date", "t", "", "Due date for a new due as DD.MM.YYYY (default today)")
	Cmd.Flags().BoolVar(&createMember, "create-member", false, "Create the member if none matches")
	_ = Cmd.MarkFlagRequired("member")
	_ = Cmd.MarkFlagRequired("name")
}

func dueFunc(cmd *cobra.Command, args []string) {
	st, svc := root.OpenService()
	defer st.Close()

	member := root.ResolveMember(cmd, st, svc, memberName, createMember)

	due, err := st.GetDueByName(cmd.Context(), dueName)
	if err != nil {
		root.Log.Fatalf("Error looking up due %q: %v", dueName, err)
	}
	if due == nil {
		if amount == "" {
			root.Log.Fatalf("No due named %q in the catalog (use --amount to add it)", dueName)
		}
		parsedAmount, err := currencyutils.ParseAmount(amount)
		if err != nil {
			root.Log.Fatalf("Invalid amount %q: %v", amount, err)
		}
		date := time.Now().UTC().Truncate(24 * time.Hour)
		if dueDate != "" {
			date, err = dateutils.ParseDayMonthYear(dueDate)
			if err != nil {
				root.Log.Fatalf("Invalid date %q: %v", dueDate, err)
			}
		}
		due = &models.Due{
			ID:        uuid.NewString(),
			Name:      dueName,
			Amount:    parsedAmount,
			Active:    true,
			DueDate:   date,
			CreatedAt: time.Now().UTC(),
		}
		if err := st.InsertDue(cmd.Context(), *due); err != nil {
			root.Log.Fatalf("Error adding due %q to the catalog: %v", dueName, err)
		}
		root.Log.WithField("due", dueName).Info("Added due to catalog")
	}

	created, err := svc.CreateDuePayment(cmd.Context(), member.ID, due.ID, ledger.DueStatus(status))
	if err != nil {
		root.Log.Fatalf("Error recording due payment: %v", err)
	}

	entry := root.Log.WithField("member", member.Name)
	if created.Exempt {
		entry.Infof("%s recorded as exempt", due.Name)
	} else {
		entry.Infof("%s recorded as paid (%s)", due.Name, currencyutils.FormatAmount(created.Amount, ""))
	}
}
