package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/usmankhan045/blood-donation-notifier/internal/observability"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
)

const defaultExpirySweepInterval = 5 * time.Minute

// ExpirySweeper periodically transitions overdue open requests to expired.
type ExpirySweeper struct {
	requests repository.RequestRepository
	metrics  *observability.Metrics
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
}

func NewExpirySweeper(
	requests repository.RequestRepository,
	interval time.Duration,
	logger *zap.Logger,
) (*ExpirySweeper, error) {
	if requests == nil {
		return nil, fmt.Errorf("request repository is required")
	}
	if interval <= 0 {
		interval = defaultExpirySweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ExpirySweeper{
		requests: requests,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}, nil
}

func (s *ExpirySweeper) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *ExpirySweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial sweep so already-due requests do not wait for the first ticker edge.
	if err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("expiry sweeper initial sweep failed", zap.Error(err))
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
				s.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *ExpirySweeper) Sweep(ctx context.Context) error {
	expired, err := s.requests.ExpireDue(ctx, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to expire due requests: %w", err)
	}

	if expired > 0 {
		s.metrics.AddRequestsExpired(expired)
		s.logger.Info("expired overdue requests", zap.Int64("count", expired))
	}

	return nil
}
