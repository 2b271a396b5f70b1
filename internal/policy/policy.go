// Package policy implements the pure retention decision rules. The engine is
// stateless: every pass re-evaluates each entry's age against the configured
// thresholds, so re-running it is always safe.
package policy

import (
	"fmt"
	"time"

	"github.com/promopipe/promokeeper/internal/batch"
)

// Action is the single decision the engine returns for an entry.
type Action int

const (
	// NoAction leaves the entry untouched this pass.
	NoAction Action = iota
	// Archive relocates a live batch to the archive root.
	Archive
	// Compress turns an archived directory into a single tar.gz file.
	Compress
	// Purge deletes a compressed archive or a log file for good.
	Purge
)

// String returns the lowercase action name.
func (a Action) String() string {
	switch a {
	case NoAction:
		return "none"
	case Archive:
		return "archive"
	case Compress:
		return "compress"
	case Purge:
		return "purge"
	default:
		return "unknown"
	}
}

// Thresholds are the immutable retention ages, in days, all measured from a
// batch's original creation time.
type Thresholds struct {
	ArchiveAfterDays         int
	CompressAfterDays        int
	PurgeCompressedAfterDays int
	PurgeLogAfterDays        int
}

// DefaultThresholds returns the canonical 7/30/90/30 day configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ArchiveAfterDays:         7,
		CompressAfterDays:        30,
		PurgeCompressedAfterDays: 90,
		PurgeLogAfterDays:        30,
	}
}

// Validate rejects negative values and orderings that would let a batch skip
// a lifecycle state. Archive must come before compress, compress before
// purge, all measured from creation.
func (t Thresholds) Validate() error {
	if t.ArchiveAfterDays < 0 || t.CompressAfterDays < 0 ||
		t.PurgeCompressedAfterDays < 0 || t.PurgeLogAfterDays < 0 {
		return fmt.Errorf("retention thresholds must not be negative: %+v", t)
	}
	if t.ArchiveAfterDays >= t.CompressAfterDays {
		return fmt.Errorf("archive_after_days (%d) must be less than compress_after_days (%d)",
			t.ArchiveAfterDays, t.CompressAfterDays)
	}
	if t.CompressAfterDays >= t.PurgeCompressedAfterDays {
		return fmt.Errorf("compress_after_days (%d) must be less than purge_compressed_after_days (%d)",
			t.CompressAfterDays, t.PurgeCompressedAfterDays)
	}
	return nil
}

const day = 24 * time.Hour

// ArchiveAfter is the live-to-archived threshold as a duration.
func (t Thresholds) ArchiveAfter() time.Duration {
	return time.Duration(t.ArchiveAfterDays) * day
}

// CompressAfter is the archived-to-compressed threshold as a duration.
func (t Thresholds) CompressAfter() time.Duration {
	return time.Duration(t.CompressAfterDays) * day
}

// PurgeCompressedAfter is the compressed-to-purged threshold as a duration.
func (t Thresholds) PurgeCompressedAfter() time.Duration {
	return time.Duration(t.PurgeCompressedAfterDays) * day
}

// PurgeLogAfter is the log purge threshold as a duration.
func (t Thresholds) PurgeLogAfter() time.Duration {
	return time.Duration(t.PurgeLogAfterDays) * day
}

// Decide maps a batch's state and age to exactly one action. Boundaries are
// strict: an age exactly equal to a threshold is not yet eligible, so every
// entry gets a grace period of at least the full threshold duration.
func Decide(state batch.State, age time.Duration, t Thresholds) Action {
	switch state {
	case batch.StateLive:
		if age > t.ArchiveAfter() {
			return Archive
		}
	case batch.StateArchived:
		if age > t.CompressAfter() {
			return Compress
		}
	case batch.StateCompressed:
		if age > t.PurgeCompressedAfter() {
			return Purge
		}
	}
	return NoAction
}

// DecideLog applies the two-state log policy: logs go straight from live to
// purged with no intermediate tier.
func DecideLog(age time.Duration, t Thresholds) Action {
	if age > t.PurgeLogAfter() {
		return Purge
	}
	return NoAction
}
