// Package watcher_test tests batch arrival watching.
package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/promopipe/promokeeper/internal/watcher"
)

func TestNewMissingRoot(t *testing.T) {
	_, err := watcher.New(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestWatcherSeesNewBatch(t *testing.T) {
	root := t.TempDir()
	core, logs := observer.New(zap.InfoLevel)

	w, err := watcher.New(root, zap.New(core))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	require.NoError(t, os.Mkdir(filepath.Join(root, "promo_20250601_030000"), 0o750))
	// Ignored: does not follow the naming convention.
	require.NoError(t, os.Mkdir(filepath.Join(root, "scratch"), 0o750))

	require.Eventually(t, func() bool {
		return logs.FilterMessage("new batch visible").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}
