package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultRetentionDays is the default retention period for question history.
const DefaultRetentionDays = 90

// RetentionService removes old question history.
type RetentionService interface {
	// Prune removes history older than the retention period and returns the
	// number of rows deleted.
	Prune(ctx context.Context) (int64, error)

	// RunScheduler starts a background goroutine that prunes on the given interval.
	// It runs immediately on startup, then repeats every interval.
	// Cancel the context to stop the scheduler.
	RunScheduler(ctx context.Context, interval time.Duration)
}

type retentionService struct {
	history       QueryHistoryService
	retentionDays int
	now           func() time.Time
	logger        *zap.Logger
}

func NewRetentionService(history QueryHistoryService, retentionDays int, logger *zap.Logger) RetentionService {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &retentionService{
		history:       history,
		retentionDays: retentionDays,
		now:           time.Now,
		logger:        logger.Named("retention-service"),
	}
}

var _ RetentionService = (*retentionService)(nil)

func (s *retentionService) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.retentionDays)

	deleted, err := s.history.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("Retention cleanup completed",
			zap.Int("retention_days", s.retentionDays),
			zap.Int64("history_deleted", deleted))
	}
	return deleted, nil
}

func (s *retentionService) RunScheduler(ctx context.Context, interval time.Duration) {
	go func() {
		s.logger.Info("Retention scheduler started",
			zap.Duration("interval", interval),
			zap.Int("retention_days", s.retentionDays))

		// Run immediately on startup, then at each interval
		s.pruneOnce(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Retention scheduler stopped")
				return
			case <-ticker.C:
				s.pruneOnce(ctx)
			}
		}
	}()
}

func (s *retentionService) pruneOnce(ctx context.Context) {
	if _, err := s.Prune(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("Retention scheduler: prune failed", zap.Error(err))
	}
}
