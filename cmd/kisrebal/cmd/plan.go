package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/kisrebal/engine"
	"github.com/rustyeddy/kisrebal/report"
	"github.com/rustyeddy/kisrebal/strategy"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the rebalancing plan without placing any orders",
	Long: `Compute what a rebalance would do: fetch the account balance, compare it
against the portfolio's target weights, and print the planned action per
instrument. Nothing is cancelled and nothing is ordered.

Example:
  kisrebal plan -p portfolio.yaml`,
	RunE: runPlan,
}

var (
	planThreshold float64
	planMode      string
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().Float64Var(&planThreshold, "threshold", 0,
		"deviation below this many won is left alone (default 10000)")
	planCmd.Flags().StringVar(&planMode, "mode", "split",
		"order strategy the plan would execute under (split or market)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	strat, err := strategy.ByName(planMode)
	if err != nil {
		return err
	}

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

		coord := engine.NewCoordinator(b, nil, log)
		res, err := coord.Run(ctx, pf.Targets, engine.Options{Threshold: planThreshold})
		if err != nil {
			return fmt.Errorf("%s: %w", pf.Path, err)
		}

		fmt.Printf("== %s (account %s)\n\n", pf.Path, b.Account())
		report.Summary(os.Stdout, res.Snapshot)
		fmt.Println()
		report.Plan(os.Stdout, res.Plan)
		report.PlanSummary(os.Stdout, res.Plan, strat.Name())
		fmt.Println()
	}
	return nil
}
