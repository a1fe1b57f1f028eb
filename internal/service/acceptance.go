package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"github.com/usmankhan045/blood-donation-notifier/internal/events"
	"github.com/usmankhan045/blood-donation-notifier/internal/observability"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
)

// AcceptanceNotifier tells a requester that a donor accepted their request.
// It fires exactly on the transition into accepted; replayed or unrelated
// status changes are no-ops.
type AcceptanceNotifier struct {
	requests  repository.RequestRepository
	profiles  repository.ProfileRepository
	queue     repository.QueueRepository
	consumer  events.Consumer
	publisher events.Publisher
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewAcceptanceNotifier(
	requests repository.RequestRepository,
	profiles repository.ProfileRepository,
	queue repository.QueueRepository,
	consumer events.Consumer,
	publisher events.Publisher,
	logger *zap.Logger,
) (*AcceptanceNotifier, error) {
	if requests == nil {
		return nil, fmt.Errorf("request repository is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if queue == nil {
		return nil, fmt.Errorf("queue repository is required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AcceptanceNotifier{
		requests:  requests,
		profiles:  profiles,
		queue:     queue,
		consumer:  consumer,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (n *AcceptanceNotifier) SetMetrics(metrics *observability.Metrics) {
	if n == nil {
		return
	}
	n.metrics = metrics
}

// Start consumes status-change triggers until context cancellation.
func (n *AcceptanceNotifier) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return n.consumer.Consume(ctx, events.QueueRequestStatusChanged, n.HandleStatusChanged)
}

func (n *AcceptanceNotifier) HandleStatusChanged(ctx context.Context, body []byte) error {
	var msg events.RequestStatusChangedMessage
	if err := events.DecodeInto(body, &msg); err != nil {
		return err
	}

	// Fire only on the first observed transition into accepted.
	if msg.Before == domain.RequestStatusAccepted || msg.After != domain.RequestStatusAccepted {
		return nil
	}

	req, err := n.requests.GetByID(ctx, msg.RequestID)
	if errors.Is(err, domain.ErrNotFound) {
		n.logger.Warn("request gone before acceptance notification, skipping",
			zap.String("requestId", msg.RequestID),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load accepted request: %w", err)
	}

	profile, err := n.profiles.GetByID(ctx, req.RequesterID)
	if errors.Is(err, domain.ErrNotFound) {
		n.logger.Warn("requester profile not found, skipping acceptance notification",
			zap.String("requestId", req.ID),
			zap.String("requesterId", req.RequesterID),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load requester profile: %w", err)
	}

	if !profile.HasToken() {
		n.logger.Info("requester has no push token, skipping acceptance notification",
			zap.String("requestId", req.ID),
			zap.String("requesterId", req.RequesterID),
		)
		return nil
	}

	notification := buildAcceptanceNotification(req, profile.Token())
	notification.ID = uuid.NewString()
	notification.CreatedAt = n.now().UTC()

	if err := n.queue.Enqueue(ctx, notification); err != nil {
		return fmt.Errorf("failed to enqueue acceptance notification: %w", err)
	}

	queuedMsg := events.NotificationQueuedMessage{
		NotificationID: notification.ID,
		Priority:       notification.Priority,
	}
	if err := n.publisher.Publish(ctx, events.QueueNotificationQueued, queuedMsg); err != nil {
		return fmt.Errorf("failed to publish delivery trigger for acceptance: %w", err)
	}

	n.metrics.IncNotificationQueued("acceptance")
	n.logger.Info("acceptance notification queued",
		zap.String("requestId", req.ID),
		zap.String("requesterId", req.RequesterID),
		zap.String("notificationId", notification.ID),
	)

	return nil
}
