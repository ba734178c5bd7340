package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Cleaner purges messages older than a retention window.
type Cleaner interface {
	Cleanup(retentionDays int) (int, error)
}

// Sweeper runs Cleanup on a fixed interval.
type Sweeper struct {
	Cleaner       Cleaner
	Interval      time.Duration
	RetentionDays int
	Logger        *slog.Logger
}

// Run blocks until ctx is cancelled. Cleanup errors are logged and the
// loop carries on with the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if s.Interval <= 0 {
		return fmt.Errorf("sweeper interval must be positive, got %v", s.Interval)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	logger.Info("sweeper started", "interval", s.Interval.String(), "retention_days", s.RetentionDays)

	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper stopped")
			return nil

		case <-ticker.C:
			n, err := s.Cleaner.Cleanup(s.RetentionDays)
			if err != nil {
				logger.Error("scheduled cleanup failed", "error", err)
				continue
			}
			logger.Debug("scheduled cleanup done", "matched", n)
		}
	}
}
