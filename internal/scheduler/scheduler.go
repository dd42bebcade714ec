// Package scheduler runs collection on a fixed interval for daemon mode.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/thebeakers/spsdaily/pkg/pipeline"
)

// Notifier is told when a run leaves candidates pending review.
// Satisfied by *telegram.Client; nil disables notifications.
type Notifier interface {
	SendMessage(ctx context.Context, text string) error
}

// Scheduler runs the collection pipeline periodically.
type Scheduler struct {
	pipe     *pipeline.Pipeline
	notifier Notifier
	interval time.Duration
	log      *slog.Logger
}

// New creates a scheduler around a built pipeline.
func New(pipe *pipeline.Pipeline, notifier Notifier, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{pipe: pipe, notifier: notifier, interval: interval, log: log}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled. A run
// happens immediately on start, then on every tick; a failed run is
// logged and the loop keeps going.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler starting", "interval", s.interval)
	s.collect(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.collect(ctx)
		}
	}
}

func (s *Scheduler) collect(ctx context.Context) {
	start := time.Now()
	pending, err := s.pipe.Run(ctx)
	if err != nil {
		s.log.Error("collection run failed", "error", err)
		return
	}

	total := 0
	for _, list := range pending {
		total += len(list)
	}
	s.log.Info("collection run finished", "pending", total, "took", time.Since(start))

	if s.notifier == nil || total == 0 {
		return
	}
	text := "New articles are pending review. Send /review to see them."
	if err := s.notifier.SendMessage(ctx, text); err != nil {
		s.log.Warn("pending notification failed", "error", err)
	}
}
