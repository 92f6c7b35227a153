package service

import (
	"context"
	"log/slog"
	"time"
)

type runPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper periodically deletes stored runs older than the
// retention window.
type RetentionSweeper struct {
	runs      runPurger
	logger    *slog.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewRetentionSweeper(runs runPurger, logger *slog.Logger, retention, interval time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		runs:      runs,
		logger:    logger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

func (s *RetentionSweeper) Start(ctx context.Context) {
	s.logger.Info("retention sweeper started", "interval", s.interval, "retention", s.retention)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionSweeper) sweep(ctx context.Context) {
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.runs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to delete expired validation runs", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired validation runs deleted", "count", n, "cutoff", cutoff)
	}
}
