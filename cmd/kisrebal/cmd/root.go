package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/kisrebal/broker/kis"
	"github.com/rustyeddy/kisrebal/config"
	"github.com/rustyeddy/kisrebal/pkg/logger"
	"github.com/rustyeddy/kisrebal/portfolio"
	"github.com/rustyeddy/kisrebal/token"
)

var rootCmd = &cobra.Command{
	Use:   "kisrebal",
	Short: "Portfolio rebalancer for Korea Investment & Securities accounts",
	Long: `Kisrebal rebalances a brokerage account toward the target weights in a
portfolio file, through the KIS Open API.

It provides tools for:
  - Planning a rebalance without placing any orders
  - Executing buys and sells with a split or market-price order strategy
  - Cancelling stale open orders before new ones are placed
  - Reviewing the account balance and open orders
  - Journaling every cycle and order ticket to SQLite

Credentials come from the environment (or a .env file); a portfolio file
can override them per account.`,
}

var (
	portfolioPath string
	tokenFile     string
	logLevel      string
	logPretty     bool

	log zerolog.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		log = logger.New(logger.Config{Level: logLevel, Pretty: logPretty})
	})

	rootCmd.PersistentFlags().StringVarP(&portfolioPath, "portfolio", "p", "",
		"portfolio file (default: every portfolio*.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "token.json",
		"path of the access token cache")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", true,
		"human-readable log output")
}

// portfolios resolves the -p flag: one explicit file, or every
// portfolio*.yaml in the working directory.
func portfolios() ([]*portfolio.Portfolio, error) {
	paths := []string{portfolioPath}
	if portfolioPath == "" {
		var err error
		paths, err = portfolio.Files(".")
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("no portfolio*.yaml found; use -p to name a file")
		}
	}

	out := make([]*portfolio.Portfolio, 0, len(paths))
	for _, path := range paths {
		pf, err := portfolio.Load(path, log)
		if err != nil {
			return nil, err
		}
		out = append(out, pf)
	}
	return out, nil
}

// brokerFor builds the KIS client for one portfolio: env credentials with
// the file's override merged on top, sharing one token cache file.
func brokerFor(pf *portfolio.Portfolio) (*kis.Client, error) {
	creds := config.FromEnv()
	if pf.Override != nil {
		creds = creds.Merge(pf.Override.Credentials())
	}
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", pf.Path, err)
	}

	cache := token.NewCache(token.NewFileStore(tokenFile), log)
	return kis.New(creds, cache, log), nil
}
