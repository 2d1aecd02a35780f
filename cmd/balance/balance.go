// Package balance handles balance reporting commands
package balance

import (
	"github.com/spf13/cobra"

	"psheikomaniac/club-ledger/cmd/root"
	"psheikomaniac/club-ledger/internal/currencyutils"
)

var (
	memberName string
	all        bool
	recompute  bool
)

// Cmd represents the balance command
var Cmd = &cobra.Command{
	Use:   "balance",
	Short: "Show member balances",
	Long: `Show the computed balance of one member or of every member.

Balances are always recomputed from the ledger. With --recompute the
cached balance column of every member is rewritten as well and the number
of diverged caches is reported.`,
	Run: balanceFunc,
}

func init() {
	Cmd.Flags().StringVarP(&memberName, "member", "m", "", "Member name")
	Cmd.Flags().BoolVarP(&all, "all", "a", false, "Show every member")
	Cmd.Flags().BoolVarP(&recompute, "recompute", "r", false, "Rewrite all cached balances from the ledger")
}

func balanceFunc(cmd *cobra.Command, args []string) {
	st, svc := root.OpenService()
	defer st.Close()

	if recompute {
		corrected, err := svc.RecomputeAllBalances(cmd.Context())
		if err != nil {
			root.Log.Fatalf("Error recomputing balances: %v", err)
		}
		root.Log.Infof("Recomputed all balances, corrected %d diverged caches", corrected)
		return
	}

	if all {
		members, err := st.ListMembers(cmd.Context())
		if err != nil {
			root.Log.Fatalf("Error listing members: %v", err)
		}
		for _, member := range members {
			balance, err := svc.ComputeBalance(cmd.Context(), member.ID)
			if err != nil {
				root.Log.Fatalf("Error computing balance for %s: %v", member.Name, err)
			}
			root.Log.Infof("%s: %s", member.Name, currencyutils.FormatAmount(balance, ""))
		}
		return
	}

	if memberName == "" {
		root.Log.Fatal("Either --member or --all is required")
	}

	member := root.ResolveMember(cmd, st, svc, memberName, false)
	balance, err := svc.ComputeBalance(cmd.Context(), member.ID)
	if err != nil {
		root.Log.Fatalf("Error computing balance: %v", err)
	}
	root.Log.Infof("%s: %s", member.Name, currencyutils.FormatAmount(balance, ""))
}
