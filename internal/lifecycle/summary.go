package lifecycle

import (
	"fmt"
	"time"
)

// Summary aggregates the outcomes of one lifecycle pass. Skipped covers
// domain-expected no-ops (entry vanished, deletion target already gone);
// Conflicts counts archive destinations that already existed; Errors counts
// per-entry failures that will be retried naturally on the next pass.
type Summary struct {
	RunID      string        `json:"run_id"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"duration"`
	Live       int           `json:"live"`
	Archived   int           `json:"archived"`
	Compressed int           `json:"compressed"`
	Purged     int           `json:"purged"`
	Skipped    int           `json:"skipped"`
	Conflicts  int           `json:"conflicts"`
	Errors     int           `json:"errors"`
}

// String renders the one-line progress summary written to stdout for the
// caller's log capture.
func (s Summary) String() string {
	return fmt.Sprintf(
		"lifecycle pass %s: live=%d archived=%d compressed=%d purged=%d skipped=%d conflicts=%d errors=%d (%s)",
		s.RunID, s.Live, s.Archived, s.Compressed, s.Purged, s.Skipped, s.Conflicts, s.Errors,
		s.Duration.Round(time.Millisecond),
	)
}
