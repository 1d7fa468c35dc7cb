package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sromero1905/scrapping-link/internal/ports"
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (Report, error)
}

// Scheduler wires the cron-like driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline Runner
	logger   *slog.Logger
	onReport func(Report)

	mu   sync.Mutex
	last *Report
}

// NewScheduler returns a helper to start/stop recurring jobs. onReport, when
// set, receives each finished report.
func NewScheduler(driver ports.Scheduler, pipeline Runner, logger *slog.Logger, onReport func(Report)) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger, onReport: onReport}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}
	return s.driver.Start(ctx, func(trigger time.Time) { s.runOnce(ctx, trigger) })
}

func (s *Scheduler) runOnce(ctx context.Context, trigger time.Time) {
	if s.logger != nil {
		s.logger.Info("scheduled run triggered", "at", trigger)
	}

	report, err := s.pipeline.Run(ctx)
	if err != nil && s.logger != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()

	if s.onReport != nil {
		s.onReport(report)
	}
}

// LastReport returns the most recent scheduled report, if any.
func (s *Scheduler) LastReport() (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
