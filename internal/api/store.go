package api

import (
	"sync"
	"time"

	"github.com/promopipe/promokeeper/internal/lifecycle"
	"github.com/promopipe/promokeeper/internal/logrotate"
)

// Report is the JSON record of one completed lifecycle pass, batches and
// logs together.
type Report struct {
	RunID    string            `json:"run_id"`
	Finished time.Time         `json:"finished"`
	Batches  lifecycle.Summary `json:"batches"`
	Logs     logrotate.Summary `json:"logs"`
}

// Store holds the most recent pass report for the status API. The state on
// disk is authoritative; this is observability only.
type Store struct {
	mu   sync.RWMutex
	last *Report
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Set records the latest report.
func (s *Store) Set(r Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &r
}

// Last returns the most recent report, if any pass has completed.
func (s *Store) Last() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}
