package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promopipe/promokeeper/internal/api"
	"github.com/promopipe/promokeeper/internal/clock/system"
	"github.com/promopipe/promokeeper/internal/lifecycle"
	"github.com/promopipe/promokeeper/internal/lockfile"
	"github.com/promopipe/promokeeper/internal/logrotate"
	"github.com/promopipe/promokeeper/internal/metrics"
	"github.com/promopipe/promokeeper/internal/scheduler"
	"github.com/promopipe/promokeeper/internal/watcher"
)

// newServeCmd creates the 'serve' subcommand: lifecycle passes on a cron
// schedule plus a read-only status API, until interrupted.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs lifecycle passes on a schedule with a status API",
		Long: `Runs in the foreground, firing a full lifecycle pass on the configured cron
schedule and serving /healthz, /metrics, /v1/summary, and /v1/batches over
HTTP. The schedule must be placed so passes never overlap an in-progress
scrape or process run; the lock file only catches violations of that
contract.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	metrics.Init()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := system.New()
	store := api.NewStore()

	pass := func(ctx context.Context) error {
		lock, err := lockfile.Acquire(cfg.Paths.LockFile, lockStaleAfter)
		if err != nil {
			return err
		}
		defer func() {
			if rerr := lock.Release(); rerr != nil {
				logger.Warn("failed to release lock", zap.Error(rerr))
			}
		}()

		exec, err := lifecycle.New(lifecycle.Config{
			OutputRoot:  cfg.Paths.OutputRoot,
			ArchiveRoot: cfg.Paths.ArchiveRoot,
			Thresholds:  cfg.Thresholds(),
		}, clk, logger)
		if err != nil {
			return err
		}
		sum, err := exec.Run(ctx)
		if err != nil {
			return err
		}

		rot, err := logrotate.New(cfg.Paths.LogRoot, cfg.Thresholds(), clk, logger)
		if err != nil {
			return err
		}
		logSum, err := rot.Run(ctx)
		if err != nil {
			return err
		}

		store.Set(api.Report{
			RunID:    sum.RunID,
			Finished: clk.Now(),
			Batches:  sum,
			Logs:     logSum,
		})
		fmt.Println(sum)
		fmt.Println(logSum)
		return nil
	}

	sched := scheduler.New(cfg.Serve.Schedule, pass, logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	if cfg.Serve.WatchOutput {
		w, err := watcher.New(cfg.Paths.OutputRoot, logger)
		if err != nil {
			logger.Warn("batch watcher unavailable", zap.Error(err))
		} else {
			defer func() { _ = w.Close() }()
			go func() {
				if werr := w.Run(ctx); werr != nil {
					logger.Warn("batch watcher stopped", zap.Error(werr))
				}
			}()
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Serve.Port),
		Handler:           api.NewServer(store, cfg.Paths.OutputRoot, cfg.Paths.ArchiveRoot, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("status server shutdown", zap.Error(serr))
		}
	}()

	logger.Info("status server listening",
		zap.Int("port", cfg.Serve.Port),
		zap.String("schedule", cfg.Serve.Schedule),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}
