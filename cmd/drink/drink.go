// Package drink handles beverage consumption commands
package drink

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"psheikomaniac/club-ledger/cmd/root"
	"psheikomaniac/club-ledger/internal/currencyutils"
	"psheikomaniac/club-ledger/internal/dateutils"
	"psheikomaniac/club-ledger/internal/models"
)

var (
	memberName   string
	beverageName string
	price        string
	category     string
	date         string
	createMember bool
)

// Cmd represents the drink command
var Cmd = &cobra.Command{
	Use:   "drink",
	Short: "Record a beverage consumption for a member",
	Long: `Record a beverage consumption for a member, priced from the beverage
catalog. An unknown beverage is added to the catalog when --price is given.

Example:
  club-ledger drink -m "Max Mustermann" -b Bier`,
	Run: drinkFunc,
}

func init() {
	Cmd.Flags().StringVarP(&memberName, "member", "m", "", "Member name (required)")
	Cmd.Flags().StringVarP(&beverageName, "beverage", "b", "", "Beverage name (required)")
	Cmd.Flags().StringVarP(&price, "price", "p", "", "Catalog price for a new beverage, e.g. 1.50")
	Cmd.Flags().StringVarP(&category, "category", "c", "", "Catalog category for a new beverage")
	Cmd.Flags().StringVarP(&date, "date", "t", "", "Consumption date as DD.MM.YYYY (default today)")
	Cmd.Flags().BoolVar(&createMember, "create-member", false, "Create the member if none matches")
	_ = Cmd.MarkFlagRequired("member")
	_ = Cmd.MarkFlagRequired("beverage")
}

func drinkFunc(cmd *cobra.Command, args []string) {
	drinkDate := time.Now().UTC().Truncate(24 * time.Hour)
	if date != "" {
		var err error
		drinkDate, err = dateutils.ParseDayMonthYear(date)
		if err != nil {
			root.Log.Fatalf("Invalid date %q: %v", date, err)
		}
	}

	st, svc := root.OpenService()
	defer st.Close()

	member := root.ResolveMember(cmd, st, svc, memberName, createMember)

	beverage, err := st.GetBeverageByName(cmd.Context(), beverageName)
	if err != nil {
		root.Log.Fatalf("Error looking up beverage %q: %v", beverageName, err)
	}
	if beverage == nil {
		if price == "" {
			root.Log.Fatalf("No beverage named %q in the catalog (use --price to add it)", beverageName)
		}
		parsedPrice, err := currencyutils.ParseAmount(price)
		if err != nil {
			root.Log.Fatalf("Invalid price %q: %v", price, err)
		}
		beverage = &models.Beverage{
			ID:       uuid.NewString(),
			Name:     beverageName,
			Price:    parsedPrice,
			Category: category,
		}
		if err := st.InsertBeverage(cmd.Context(), *beverage); err != nil {
			root.Log.Fatalf("Error adding beverage %q to the catalog: %v", beverageName, err)
		}
		root.Log.WithField("beverage", beverageName).Info("Added beverage to catalog")
	}

	created, err := svc.CreateBeverageConsumption(cmd.Context(), member.ID, beverage.ID, drinkDate)
	if err != nil {
		root.Log.Fatalf("Error recording consumption: %v", err)
	}

	entry := root.Log.WithField("member", member.Name)
	if created.Paid {
		entry.Infof("%s recorded and settled from credit (%s)", beverage.Name, currencyutils.FormatAmount(created.Amount, ""))
	} else {
		entry.Infof("%s recorded (%s)", beverage.Name, currencyutils.FormatAmount(created.Amount, ""))
	}
}
