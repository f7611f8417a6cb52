package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/kisrebal/engine"
	"github.com/rustyeddy/kisrebal/report"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List open orders, optionally cancelling them",
	Long: `List the revocable open orders on the account. With --cancel every listed
order is cancelled, the same sweep a rebalance performs before trading.`,
	RunE: runOrders,
}

var ordersCancel bool

func init() {
	rootCmd.AddCommand(ordersCmd)

	ordersCmd.Flags().BoolVar(&ordersCancel, "cancel", false, "cancel every open order")
}

func runOrders(cmd *cobra.Command, args []string) error {
	pfs, err := portfolios()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	for _, pf := range pfs {
		b, err := brokerFor(pf)
		if err != nil {
			return err
		}

		fmt.Printf("== %s (account %s)\n\n", pf.Path, b.Account())

		if ordersCancel {
			rec, err := engine.NewReconciler(b, log).Reconcile(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", pf.Path, err)
			}
			fmt.Printf("cancelled %d order(s), %d failed\n\n", rec.Cancelled, rec.Failed)
			continue
		}

		orders, err := b.ListOpenOrders(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", pf.Path, err)
		}
		report.OpenOrders(os.Stdout, orders)
		fmt.Println()
	}
	return nil
}
