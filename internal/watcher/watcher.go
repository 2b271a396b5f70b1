// Package watcher observes the output root for new batch directories. The
// scraper makes a batch visible only once fully written, so a create event
// for a promo_ directory marks a completed scrape run. Serve mode uses this
// to keep the live-batch gauge current between lifecycle passes.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/promopipe/promokeeper/internal/batch"
	"github.com/promopipe/promokeeper/internal/metrics"
)

// Watcher reports batch arrivals under a single output root.
type Watcher struct {
	root   string
	fsw    *fsnotify.Watcher
	logger *zap.Logger
}

// New creates a Watcher on outputRoot.
func New(outputRoot string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fsw.Add(outputRoot); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch output root %s: %w", outputRoot, err)
	}
	return &Watcher{root: outputRoot, fsw: fsw, logger: logger}, nil
}

// Run blocks, logging batch arrivals until ctx is canceled or the watcher
// closes. Events for entries that do not follow the batch naming convention
// are ignored.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if !batch.IsBatchName(name) {
				continue
			}
			w.logger.Info("new batch visible", zap.String("batch", name))
			if live, err := batch.ListLive(w.root); err == nil {
				metrics.SetLiveBatches(len(live))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
