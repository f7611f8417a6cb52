package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/kisrebal/engine"
	"github.com/rustyeddy/kisrebal/journal"
	"github.com/rustyeddy/kisrebal/report"
	"github.com/rustyeddy/kisrebal/strategy"
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Rebalance the account by placing orders",
	Long: `Rebalance the account: cancel stale open orders, then place the buys and
sells the plan calls for. With --buy or --sell only that direction trades;
with neither flag both directions trade.

Examples:
  kisrebal execute
  kisrebal execute --sell --mode market
  kisrebal execute --buy --threshold 50000 --journal trades.db`,
	RunE: runExecute,
}

var (
	executeBuy       bool
	executeSell      bool
	executeMode      string
	executeThreshold float64
	executeJournal   string
)

func init() {
	rootCmd.AddCommand(executeCmd)

	executeCmd.Flags().BoolVar(&executeBuy, "buy", false, "place buy orders")
	executeCmd.Flags().BoolVar(&executeSell, "sell", false, "place sell orders")
	executeCmd.Flags().StringVar(&executeMode, "mode", "split",
		"order strategy (split or market)")
	executeCmd.Flags().Float64Var(&executeThreshold, "threshold", 0,
		"deviation below this many won is left alone (default 10000)")
	executeCmd.Flags().StringVar(&executeJournal, "journal", "",
		"record cycles and tickets to this SQLite file")
}

func runExecute(cmd *cobra.Command, args []string) error {
	strat, err := strategy.ByName(executeMode)
	if err != nil {
		return err
	}

	opts := engine.Options{
		EnableBuy:  executeBuy,
		EnableSell: executeSell,
		Threshold:  executeThreshold,
		Strategy:   strat,
	}
	if !executeBuy && !executeSell {
		opts.EnableBuy = true
		opts.EnableSell = true
	}

	var j journal.Journal
	if executeJournal != "" {
		sj, err := journal.NewSQLite(executeJournal)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer sj.Close()
		j = sj
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

		coord := engine.NewCoordinator(b, j, log)
		res, runErr := coord.Run(ctx, pf.Targets, opts)

		// A mid-cycle abort still comes with a partial result; report what
		// was cancelled and submitted before failing the command.
		if res != nil {
			fmt.Printf("== %s (account %s)\n\n", pf.Path, b.Account())
			report.Plan(os.Stdout, res.Plan)
			report.PlanSummary(os.Stdout, res.Plan, strat.Name())
			fmt.Println()
			report.Execution(os.Stdout, res)
			fmt.Println()
		}
		if runErr != nil {
			return fmt.Errorf("%s: %w", pf.Path, runErr)
		}
	}
	return nil
}
