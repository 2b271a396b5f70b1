// Package batch defines the on-disk conventions shared by the scrape
// pipeline: how a scrape run's output directory is named, how pipeline log
// files are named, and how an entry's lifecycle state is derived from where
// and in what form it sits on disk.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// State is the lifecycle state of a batch, derived purely from which root the
// entry lives under and whether it is a directory or a compressed file.
type State int

const (
	// StateLive is a plain directory under the output root, still readable
	// by the processor.
	StateLive State = iota
	// StateArchived is a plain directory relocated to the archive root.
	StateArchived
	// StateCompressed is a single tar.gz file under the archive root.
	StateCompressed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateArchived:
		return "archived"
	case StateCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

const (
	// Prefix is the required name prefix for batch directories.
	Prefix = "promo_"

	// TimestampLayout matches the creation marker the scraper embeds in
	// batch names, e.g. promo_20250114_031500.
	TimestampLayout = "20060102_150405"

	// CompressedExt is the suffix of a compressed batch under the archive
	// root. The base name before the suffix is the original batch name.
	CompressedExt = ".tar.gz"

	// PartialExt marks an in-progress compression result. Anything with
	// this suffix left over from a previous run is incomplete and safe to
	// delete.
	PartialExt = ".partial.tar.gz"
)

// ErrNoBatches is returned by Latest when the output root holds no batches.
var ErrNoBatches = errors.New("no batches found")

// Batch is one scrape run's output as it currently exists on disk.
type Batch struct {
	// Name is the base name without any compression suffix,
	// e.g. promo_20250114_031500.
	Name string
	// Path is the full path of the directory or archive file.
	Path string
	// State reflects where and in what form the entry resides.
	State State
	// CreatedAt is the filesystem modification time. Renames preserve it,
	// and compression copies it onto the archive file, so age stays
	// measured from the original scrape run.
	CreatedAt time.Time
}

// Age returns how old the batch is relative to now.
func (b Batch) Age(now time.Time) time.Duration {
	return now.Sub(b.CreatedAt)
}

// ParseBatchName extracts the creation marker from a batch directory name.
func ParseBatchName(name string) (time.Time, error) {
	if !strings.HasPrefix(name, Prefix) {
		return time.Time{}, fmt.Errorf("name %q does not start with %q", name, Prefix)
	}
	ts, err := time.Parse(TimestampLayout, strings.TrimPrefix(name, Prefix))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse creation marker in %q: %w", name, err)
	}
	return ts, nil
}

// IsBatchName reports whether name follows the promo_<timestamp> convention.
func IsBatchName(name string) bool {
	_, err := ParseBatchName(name)
	return err == nil
}

// ListLive enumerates the Live batches under outputRoot. Only direct children
// are considered; files and directories that do not follow the naming
// convention are ignored.
func ListLive(outputRoot string) ([]Batch, error) {
	entries, err := os.ReadDir(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("list output root %s: %w", outputRoot, err)
	}
	var batches []Batch
	for _, entry := range entries {
		if !entry.IsDir() || !IsBatchName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Entry vanished between listing and stat; a concurrent
			// mover got there first.
			continue
		}
		batches = append(batches, Batch{
			Name:      entry.Name(),
			Path:      filepath.Join(outputRoot, entry.Name()),
			State:     StateLive,
			CreatedAt: info.ModTime(),
		})
	}
	return batches, nil
}

// ListArchive enumerates Archived directories and Compressed files under
// archiveRoot. Partial compression leftovers are not returned; callers clean
// those up separately.
func ListArchive(archiveRoot string) ([]Batch, error) {
	entries, err := os.ReadDir(archiveRoot)
	if err != nil {
		return nil, fmt.Errorf("list archive root %s: %w", archiveRoot, err)
	}
	var batches []Batch
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, PartialExt) {
			continue
		}
		state := StateArchived
		base := name
		if !entry.IsDir() {
			if !strings.HasSuffix(name, CompressedExt) {
				continue
			}
			state = StateCompressed
			base = strings.TrimSuffix(name, CompressedExt)
		}
		if !IsBatchName(base) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		batches = append(batches, Batch{
			Name:      base,
			Path:      filepath.Join(archiveRoot, name),
			State:     state,
			CreatedAt: info.ModTime(),
		})
	}
	return batches, nil
}

// Latest returns the newest Live batch under outputRoot by modification time.
// This is the read contract the processor relies on: the most recent fully
// written scrape run. Returns ErrNoBatches when the root holds none.
func Latest(outputRoot string) (Batch, error) {
	batches, err := ListLive(outputRoot)
	if err != nil {
		return Batch{}, err
	}
	if len(batches) == 0 {
		return Batch{}, ErrNoBatches
	}
	newest := batches[0]
	for _, b := range batches[1:] {
		if b.CreatedAt.After(newest.CreatedAt) {
			newest = b
		}
	}
	return newest, nil
}
