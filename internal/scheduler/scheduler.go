// Package scheduler triggers generation batches on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
)

// ErrDisabled is returned by Run when automatic scheduling is switched off.
var ErrDisabled = errors.New("automatic scheduling is disabled")

// BatchRunner runs one generation batch.
type BatchRunner interface {
	Run(ctx context.Context, count int, categories []string, postStatus string) (domain.BatchResult, error)
}

// Config describes the recurring batch.
type Config struct {
	Enabled    bool
	Interval   time.Duration
	Count      int
	Categories []string
	PostStatus string
}

// Scheduler runs batches one at a time on every tick.
type Scheduler struct {
	cfg    Config
	runner BatchRunner
	log    logger.Logger
}

// New builds a Scheduler.
func New(cfg Config, runner BatchRunner, log logger.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, runner: runner, log: logger.Ensure(log)}
}

// Run blocks until ctx is cancelled, running one batch per interval. A batch that outlasts the
// interval delays the next tick instead of overlapping it.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		return ErrDisabled
	}
	if s.cfg.Interval <= 0 {
		return &domain.ConfigurationError{Field: "schedule.frequency", Reason: "interval must be positive"}
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.InfoObj("scheduler started", "schedule", map[string]any{
		"interval": s.cfg.Interval.String(),
		"count":    s.cfg.Count,
	})

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			if err := s.RunOnce(ctx); err != nil && domain.IsConfiguration(err) {
				return err
			}
		}
	}
}

// RunOnce runs a single batch and logs its summary.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	started := time.Now()
	result, err := s.runner.Run(ctx, s.cfg.Count, s.cfg.Categories, s.cfg.PostStatus)
	if err != nil {
		s.log.ErrorObj("scheduled batch rejected", "schedule_error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	summary := map[string]any{
		"generated": result.TotalGenerated,
		"errors":    result.Errors,
		"duration":  time.Since(started).String(),
	}
	if result.Success() {
		s.log.InfoObj("scheduled batch finished", "schedule_result", summary)
	} else {
		s.log.WarnObj("scheduled batch produced no articles", "schedule_result", summary)
	}
	return nil
}
