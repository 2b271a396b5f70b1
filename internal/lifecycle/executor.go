// Package lifecycle applies retention decisions to the batch directory tree.
// One Run is one full scan-and-act pass: every eligible entry is visited,
// failures on one entry never abort the rest, and all effects are idempotent
// so the next scheduled pass naturally retries anything skipped here.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promopipe/promokeeper/internal/batch"
	"github.com/promopipe/promokeeper/internal/clock"
	"github.com/promopipe/promokeeper/internal/metrics"
	"github.com/promopipe/promokeeper/internal/policy"
)

// Domain-expected outcomes. These are recorded in the summary and never
// propagated as run failures.
var (
	// ErrConflict means the archive destination already exists, usually a
	// rerun after a partial failure. The live batch is left in place.
	ErrConflict = errors.New("destination already exists")
	// ErrVanished means the entry disappeared between listing and acting,
	// which is benign under the pipeline's temporal scheduling contract.
	ErrVanished = errors.New("entry vanished before action")
)

// Config holds the executor's roots and thresholds.
type Config struct {
	OutputRoot  string
	ArchiveRoot string
	Thresholds  policy.Thresholds
}

// Executor walks the output and archive roots and applies the policy
// engine's decisions sequentially. It holds no state between runs beyond
// what is observable on disk.
type Executor struct {
	cfg    Config
	clock  clock.Clock
	logger *zap.Logger
}

// New constructs an Executor. The thresholds are validated up front so a
// misconfigured run aborts before touching any entry.
func New(cfg Config, clk clock.Clock, logger *zap.Logger) (*Executor, error) {
	if clk == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Executor{cfg: cfg, clock: clk, logger: logger}, nil
}

// Run performs one full lifecycle pass. The returned error is non-nil only
// for pipeline-wide preconditions (missing roots, unreadable listings);
// per-entry failures are counted in the summary instead.
func (e *Executor) Run(ctx context.Context) (Summary, error) {
	now := e.clock.Now()
	sum := Summary{RunID: uuid.NewString(), Started: now}
	log := e.logger.With(zap.String("run_id", sum.RunID))

	finish := func(status string) {
		sum.Duration = e.clock.Now().Sub(now)
		metrics.ObservePass(status, sum.Duration)
	}

	if err := e.checkRoots(); err != nil {
		finish("fatal")
		return sum, err
	}

	e.sweepPartials(log, &sum)

	live, err := batch.ListLive(e.cfg.OutputRoot)
	if err != nil {
		finish("fatal")
		return sum, err
	}
	archived, err := batch.ListArchive(e.cfg.ArchiveRoot)
	if err != nil {
		finish("fatal")
		return sum, err
	}

	for _, b := range append(live, archived...) {
		if err := ctx.Err(); err != nil {
			// No cancellation mid-entry; stop between entries only.
			finish("canceled")
			return sum, fmt.Errorf("pass canceled: %w", err)
		}
		e.apply(log, b, b.Age(now), &sum)
	}

	remaining, err := batch.ListLive(e.cfg.OutputRoot)
	if err == nil {
		sum.Live = len(remaining)
		metrics.SetLiveBatches(sum.Live)
	}

	finish("ok")
	log.Info("lifecycle pass finished",
		zap.Int("live", sum.Live),
		zap.Int("archived", sum.Archived),
		zap.Int("compressed", sum.Compressed),
		zap.Int("purged", sum.Purged),
		zap.Int("skipped", sum.Skipped),
		zap.Int("conflicts", sum.Conflicts),
		zap.Int("errors", sum.Errors),
		zap.Duration("duration", sum.Duration),
	)
	return sum, nil
}

// apply dispatches one entry's action and folds the outcome into sum.
func (e *Executor) apply(log *zap.Logger, b batch.Batch, age time.Duration, sum *Summary) {
	action := policy.Decide(b.State, age, e.cfg.Thresholds)
	if action == policy.NoAction {
		return
	}

	entry := log.With(
		zap.String("batch", b.Name),
		zap.String("state", b.State.String()),
		zap.String("action", action.String()),
	)

	var err error
	switch action {
	case policy.Archive:
		err = e.archive(b)
	case policy.Compress:
		err = e.compress(b)
	case policy.Purge:
		err = e.purge(b.Path)
	}

	switch {
	case err == nil:
		switch action {
		case policy.Archive:
			sum.Archived++
		case policy.Compress:
			sum.Compressed++
		case policy.Purge:
			sum.Purged++
		}
		metrics.ObserveAction(action.String(), "ok")
		entry.Info("action applied")
	case errors.Is(err, ErrConflict):
		sum.Conflicts++
		metrics.ObserveAction(action.String(), "conflict")
		entry.Warn("destination already archived; leaving batch for retry", zap.Error(err))
	case errors.Is(err, ErrVanished):
		sum.Skipped++
		metrics.ObserveAction(action.String(), "skipped")
		entry.Debug("entry gone before action; skipping")
	default:
		sum.Errors++
		metrics.ObserveAction(action.String(), "error")
		entry.Error("action failed; will retry next pass", zap.Error(err))
	}
}

// archive relocates a live batch directory to the archive root. The rename
// preserves the directory's mtime, so its age keeps counting from creation.
func (e *Executor) archive(b batch.Batch) error {
	if _, err := os.Stat(b.Path); err != nil {
		if os.IsNotExist(err) {
			return ErrVanished
		}
		return fmt.Errorf("stat %s: %w", b.Path, err)
	}
	dest := filepath.Join(e.cfg.ArchiveRoot, b.Name)
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("archive %s: %w", b.Name, ErrConflict)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat destination %s: %w", dest, err)
	}
	if err := os.Rename(b.Path, dest); err != nil {
		return fmt.Errorf("move %s to archive: %w", b.Name, err)
	}
	return nil
}

// purge irreversibly deletes a compressed archive file. The target already
// being gone is a benign race with an external cleaner.
func (e *Executor) purge(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrVanished
		}
		return fmt.Errorf("purge %s: %w", path, err)
	}
	return nil
}

// checkRoots enforces the fatal preconditions: the output root must exist
// (the scraper owns it), and the archive root must exist and be writable.
// The archive root is created on first use since the executor owns it.
func (e *Executor) checkRoots() error {
	info, err := os.Stat(e.cfg.OutputRoot)
	if err != nil {
		return fmt.Errorf("output root %s: %w", e.cfg.OutputRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output root %s is not a directory", e.cfg.OutputRoot)
	}

	if err := os.MkdirAll(e.cfg.ArchiveRoot, 0o750); err != nil {
		return fmt.Errorf("create archive root %s: %w", e.cfg.ArchiveRoot, err)
	}
	probe := filepath.Join(e.cfg.ArchiveRoot, ".writable_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("archive root %s is not writable: %w", e.cfg.ArchiveRoot, err)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("clean up probe file: %w", err)
	}
	return nil
}

// sweepPartials removes truncated compression results left behind by a
// previous run that failed mid-compression. The uncompressed directory is
// still present in that case and will be recompressed this pass.
func (e *Executor) sweepPartials(log *zap.Logger, sum *Summary) {
	entries, err := os.ReadDir(e.cfg.ArchiveRoot)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), batch.PartialExt) {
			continue
		}
		path := filepath.Join(e.cfg.ArchiveRoot, entry.Name())
		if err := os.Remove(path); err != nil {
			sum.Errors++
			log.Error("failed to remove partial archive", zap.String("path", path), zap.Error(err))
			continue
		}
		log.Warn("removed incomplete archive from previous run", zap.String("path", path))
	}
}
