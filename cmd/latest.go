package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promopipe/promokeeper/internal/batch"
)

// newLatestCmd creates the 'latest' subcommand. It prints the path of the
// newest live batch, which is the read contract the processor job uses to
// find its input.
func newLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Prints the path of the newest live batch",
		RunE:  runLatestCommand,
	}
}

func runLatestCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	b, err := batch.Latest(cfg.Paths.OutputRoot)
	if err != nil {
		if errors.Is(err, batch.ErrNoBatches) {
			return fmt.Errorf("no batches under %s", cfg.Paths.OutputRoot)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), b.Path)
	return nil
}
