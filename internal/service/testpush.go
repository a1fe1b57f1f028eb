package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"github.com/usmankhan045/blood-donation-notifier/internal/events"
	"github.com/usmankhan045/blood-donation-notifier/internal/observability"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
)

// TestPushService queues a diagnostic push for the calling user so they can
// verify their device registration end to end.
type TestPushService struct {
	profiles  repository.ProfileRepository
	queue     repository.QueueRepository
	publisher events.Publisher
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewTestPushService(
	profiles repository.ProfileRepository,
	queue repository.QueueRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) (*TestPushService, error) {
	if profiles == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if queue == nil {
		return nil, fmt.Errorf("queue repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TestPushService{
		profiles:  profiles,
		queue:     queue,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (s *TestPushService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// SendTest queues a test push for userID's registered token.
func (s *TestPushService) SendTest(ctx context.Context, userID string) (*domain.QueuedNotification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user must be authenticated", domain.ErrUnauthenticated)
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: no profile found for user %s", domain.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}

	if !profile.HasToken() {
		return nil, fmt.Errorf("%w: no FCM token found for user %s", domain.ErrNotFound, userID)
	}

	notification := buildTestNotification(userID, profile.Token(), s.now())
	notification.ID = uuid.NewString()
	notification.CreatedAt = s.now().UTC()

	if err := s.queue.Enqueue(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to enqueue test notification: %w", err)
	}

	msg := events.NotificationQueuedMessage{
		NotificationID: notification.ID,
		Priority:       notification.Priority,
	}
	if err := s.publisher.Publish(ctx, events.QueueNotificationQueued, msg); err != nil {
		return nil, fmt.Errorf("failed to publish delivery trigger for test notification: %w", err)
	}

	s.metrics.IncNotificationQueued("test")
	s.logger.Info("test notification queued",
		zap.String("userId", userID),
		zap.String("notificationId", notification.ID),
	)

	return notification, nil
}
