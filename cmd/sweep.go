package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promopipe/promokeeper/internal/clock/system"
	"github.com/promopipe/promokeeper/internal/lifecycle"
	"github.com/promopipe/promokeeper/internal/lockfile"
	"github.com/promopipe/promokeeper/internal/logrotate"
	"github.com/promopipe/promokeeper/internal/metrics"
)

// lockStaleAfter bounds how long a crashed run can block the next one. A
// pass over dozens of directories finishes in seconds, so anything this old
// is leftover, not in progress.
const lockStaleAfter = 2 * time.Hour

var skipLogs bool

// newSweepCmd creates the 'sweep' subcommand: one full lifecycle pass over
// batches and logs, then exit.
func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Runs one full lifecycle pass and exits",
		Long: `Scans the output and archive roots once, applying the retention policy to
every batch (archive, compress, purge), then rotates aged pipeline logs.
Expected skips and conflicts exit zero; entry-level failures and fatal
preconditions exit non-zero.`,
		RunE: runSweepCommand,
	}
	cmd.Flags().BoolVar(&skipLogs, "skip-logs", false,
		"skip log rotation (for running it on a separate schedule)")
	return cmd
}

func runSweepCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	metrics.Init()

	lock, err := lockfile.Acquire(cfg.Paths.LockFile, lockStaleAfter)
	if err != nil {
		if errors.Is(err, lockfile.ErrLocked) {
			return fmt.Errorf("another lifecycle pass appears to be running: %w", err)
		}
		return err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			logger.Warn("failed to release lock", zap.Error(rerr))
		}
	}()

	clk := system.New()
	exec, err := lifecycle.New(lifecycle.Config{
		OutputRoot:  cfg.Paths.OutputRoot,
		ArchiveRoot: cfg.Paths.ArchiveRoot,
		Thresholds:  cfg.Thresholds(),
	}, clk, logger)
	if err != nil {
		return err
	}

	sum, err := exec.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(sum)

	var logSum logrotate.Summary
	if !skipLogs {
		rot, err := logrotate.New(cfg.Paths.LogRoot, cfg.Thresholds(), clk, logger)
		if err != nil {
			return err
		}
		logSum, err = rot.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(logSum)
	}

	if n := sum.Errors + logSum.Errors; n > 0 {
		return fmt.Errorf("lifecycle pass completed with %d entry errors", n)
	}
	return nil
}
