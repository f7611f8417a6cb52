package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/kisrebal/report"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the account balance and current holdings",
	RunE:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
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

		snap, err := b.GetAccountSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", pf.Path, err)
		}

		fmt.Printf("== %s\n\n", pf.Path)
		report.Summary(os.Stdout, snap)
		fmt.Println()
	}
	return nil
}
