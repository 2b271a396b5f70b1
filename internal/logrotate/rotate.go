// Package logrotate purges aged pipeline log files. Logs have no archive or
// compression tier: the two-state policy takes them straight from live to
// purged.
package logrotate

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/promopipe/promokeeper/internal/batch"
	"github.com/promopipe/promokeeper/internal/clock"
	"github.com/promopipe/promokeeper/internal/metrics"
	"github.com/promopipe/promokeeper/internal/policy"
)

// Summary aggregates the outcomes of one rotation pass.
type Summary struct {
	Kept    int `json:"kept"`
	Purged  int `json:"purged"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// String renders the one-line summary written to stdout.
func (s Summary) String() string {
	return fmt.Sprintf("log rotation: kept=%d purged=%d skipped=%d errors=%d",
		s.Kept, s.Purged, s.Skipped, s.Errors)
}

// Rotator deletes pipeline logs older than the configured threshold.
type Rotator struct {
	root       string
	thresholds policy.Thresholds
	clock      clock.Clock
	logger     *zap.Logger
}

// New constructs a Rotator over logRoot.
func New(logRoot string, thresholds policy.Thresholds, clk clock.Clock, logger *zap.Logger) (*Rotator, error) {
	if clk == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rotator{root: logRoot, thresholds: thresholds, clock: clk, logger: logger}, nil
}

// Run performs one rotation pass. A missing or unreadable log root is fatal;
// per-file deletion failures are counted and the pass continues. The rotator
// never touches a file a currently running stage could still be writing,
// because anything still being written is far younger than the threshold.
func (r *Rotator) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	info, err := os.Stat(r.root)
	if err != nil {
		return sum, fmt.Errorf("log root %s: %w", r.root, err)
	}
	if !info.IsDir() {
		return sum, fmt.Errorf("log root %s is not a directory", r.root)
	}

	logs, err := batch.ListLogs(r.root)
	if err != nil {
		return sum, err
	}

	now := r.clock.Now()
	for _, lf := range logs {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("rotation canceled: %w", err)
		}
		if policy.DecideLog(lf.Age(now), r.thresholds) != policy.Purge {
			sum.Kept++
			continue
		}
		switch err := os.Remove(lf.Path); {
		case err == nil:
			sum.Purged++
			metrics.ObserveAction("purge_log", "ok")
			r.logger.Info("purged log",
				zap.String("file", lf.Name),
				zap.String("stage", lf.Stage),
			)
		case os.IsNotExist(err):
			sum.Skipped++
			metrics.ObserveAction("purge_log", "skipped")
		default:
			sum.Errors++
			metrics.ObserveAction("purge_log", "error")
			r.logger.Error("failed to purge log", zap.String("file", lf.Name), zap.Error(err))
		}
	}
	return sum, nil
}
