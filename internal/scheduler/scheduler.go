// Package scheduler triggers lifecycle passes on a cron schedule for the
// long-running serve mode. The actual ordering guarantees against the
// scraper and processor remain the orchestrator's responsibility; this
// scheduler only fires the lifecycle slot.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PassFunc runs one full lifecycle pass.
type PassFunc func(ctx context.Context) error

// Scheduler fires the configured PassFunc on a cron expression.
type Scheduler struct {
	spec   string
	run    PassFunc
	cron   *cron.Cron
	logger *zap.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler. Common expressions:
//
//	"0 4 * * *"   - daily at 4 AM, after the scrape and process slots
//	"0 */6 * * *" - every 6 hours
func New(spec string, run PassFunc, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		spec:   spec,
		run:    run,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start validates the cron expression and begins firing passes. It returns
// immediately; the scheduler stops when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spec == "" {
		return fmt.Errorf("cron schedule must be set")
	}
	if _, err := cron.ParseStandard(s.spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.spec, err)
	}

	if _, err := s.cron.AddFunc(s.spec, func() {
		s.logger.Info("scheduled lifecycle pass starting", zap.String("schedule", s.spec))
		if err := s.run(ctx); err != nil {
			s.logger.Error("scheduled lifecycle pass failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule lifecycle pass: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", zap.String("schedule", s.spec))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("scheduler stopped")
	}
}

// IsRunning reports whether the schedule is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
