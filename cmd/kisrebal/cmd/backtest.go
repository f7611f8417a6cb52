package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/kisrebal/backtest"
	"github.com/rustyeddy/kisrebal/report"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Simulate the portfolio's historical performance",
	Long: `Simulate holding the portfolio over past years of daily closing prices,
snapping back to the target weights at a fixed frequency, and report the
total return, CAGR and maximum drawdown.

Example:
  kisrebal backtest --years 3 --freq monthly`,
	RunE: runBacktest,
}

var (
	backtestYears int
	backtestFreq  string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().IntVar(&backtestYears, "years", 3,
		"length of the simulated window in years")
	backtestCmd.Flags().StringVar(&backtestFreq, "freq", "monthly",
		"rebalance frequency (weekly, biweekly, monthly, quarterly)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	freq, err := backtest.FrequencyByName(backtestFreq)
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

		runner := backtest.NewRunner(b, log)
		res, err := runner.Run(ctx, pf.Targets, backtestYears, freq)
		if err != nil {
			return fmt.Errorf("%s: %w", pf.Path, err)
		}

		fmt.Printf("== %s\n\n", pf.Path)
		report.Backtest(os.Stdout, res)
		fmt.Println()
	}
	return nil
}
