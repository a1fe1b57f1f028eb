package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/usmankhan045/blood-donation-notifier/internal/observability"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
)

const (
	defaultRetentionSweepInterval = 24 * time.Hour
	defaultRetentionWindow        = 24 * time.Hour
)

// RetentionSweeper deletes processed queue records older than the retention
// window. Unprocessed records are never touched regardless of age.
type RetentionSweeper struct {
	queue    repository.QueueRepository
	metrics  *observability.Metrics
	logger   *zap.Logger
	interval time.Duration
	window   time.Duration
	now      func() time.Time
}

func NewRetentionSweeper(
	queue repository.QueueRepository,
	interval time.Duration,
	window time.Duration,
	logger *zap.Logger,
) (*RetentionSweeper, error) {
	if queue == nil {
		return nil, fmt.Errorf("queue repository is required")
	}
	if interval <= 0 {
		interval = defaultRetentionSweepInterval
	}
	if window <= 0 {
		window = defaultRetentionWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetentionSweeper{
		queue:    queue,
		logger:   logger,
		interval: interval,
		window:   window,
		now:      time.Now,
	}, nil
}

func (s *RetentionSweeper) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *RetentionSweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("retention sweeper initial sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("retention sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *RetentionSweeper) Sweep(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.window)

	deleted, err := s.queue.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete processed queue records: %w", err)
	}

	if deleted > 0 {
		s.metrics.AddQueueRecordsDeleted(deleted)
		s.logger.Info("deleted processed queue records",
			zap.Int64("count", deleted),
			zap.Time("cutoff", cutoff),
		)
	}

	return nil
}
