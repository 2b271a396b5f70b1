package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCommand(t *testing.T) {
	output := t.TempDir()
	archive := t.TempDir()
	logs := t.TempDir()
	t.Setenv("PROMOKEEPER_PATHS_OUTPUT_ROOT", output)
	t.Setenv("PROMOKEEPER_PATHS_ARCHIVE_ROOT", archive)
	t.Setenv("PROMOKEEPER_PATHS_LOG_ROOT", logs)
	t.Setenv("PROMOKEEPER_PATHS_LOCK_FILE", filepath.Join(t.TempDir(), "pass.lock"))

	now := time.Now()
	old := now.Add(-8 * 24 * time.Hour)
	oldBatch := filepath.Join(output, "promo_"+old.Format("20060102_150405"))
	require.NoError(t, os.Mkdir(oldBatch, 0o750))
	require.NoError(t, os.Chtimes(oldBatch, old, old))

	oldLog := filepath.Join(logs, "scraper_20250101_030000.log")
	require.NoError(t, os.WriteFile(oldLog, []byte("done\n"), 0o600))
	aged := now.Add(-40 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(oldLog, aged, aged))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"sweep"})
	require.NoError(t, root.Execute())

	assert.NoDirExists(t, oldBatch)
	assert.DirExists(t, filepath.Join(archive, filepath.Base(oldBatch)))
	assert.NoFileExists(t, oldLog)
}

func TestSweepCommandMissingOutputRoot(t *testing.T) {
	t.Setenv("PROMOKEEPER_PATHS_OUTPUT_ROOT", filepath.Join(t.TempDir(), "missing"))
	t.Setenv("PROMOKEEPER_PATHS_ARCHIVE_ROOT", t.TempDir())
	t.Setenv("PROMOKEEPER_PATHS_LOG_ROOT", t.TempDir())
	t.Setenv("PROMOKEEPER_PATHS_LOCK_FILE", filepath.Join(t.TempDir(), "pass.lock"))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"sweep"})
	assert.Error(t, root.Execute())
}
