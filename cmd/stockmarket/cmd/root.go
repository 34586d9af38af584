package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockmarket/config"
	"github.com/rustyeddy/stockmarket/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "stockmarket",
	Short: "An in-world virtual stock market engine",
	Long: `Stockmarket runs a virtual stock market for a game world.

It provides tools for:
  - Evolving instrument prices on a schedule with a bounded random walk
  - Keeping a durable ledger of player holdings
  - Atomic buy and sell against the host economy
  - Admin price and holdings overrides
  - Querying the transaction and price journal

Complete documentation is available at https://github.com/rustyeddy/stockmarket`,
	SilenceUsage: true,
}

var configPath string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "", "path to config file (YAML or JSON), defaults are used when empty")
}

// loadConfig reads --config, or returns the defaults when it is unset.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Log.Level, cfg.Log.Pretty)
}
