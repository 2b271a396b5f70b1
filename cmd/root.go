// Package cmd defines and implements the CLI commands for the promokeeper
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promopipe/promokeeper/internal/config"
	"github.com/promopipe/promokeeper/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promokeeper",
		Short: "Lifecycle and retention manager for scraped promo batches",
		Long: `promokeeper manages the data lifecycle of the promo scraping pipeline.
The scraper writes dated batch directories and the processor reads the newest
one; promokeeper ages those batches through archive, compression, and
deletion, and rotates the pipeline's log files.

Each sweep is a single idempotent pass: anything skipped or conflicted is
retried naturally on the next scheduled run.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (defaults and environment variables are used when omitted)")

	cmd.AddCommand(newSweepCmd())
	cmd.AddCommand(newLatestCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute is the main entry point. It exits non-zero on any command error;
// domain-level skips and conflicts do not surface as errors.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger commands share.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
