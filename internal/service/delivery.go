package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"github.com/usmankhan045/blood-donation-notifier/internal/events"
	"github.com/usmankhan045/blood-donation-notifier/internal/gateway"
	"github.com/usmankhan045/blood-donation-notifier/internal/observability"
	"github.com/usmankhan045/blood-donation-notifier/internal/ratelimit"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
)

const (
	minDeliveryConcurrency = 1

	// rateLimitGatewayFCM is the rate limiter bucket for the push gateway.
	rateLimitGatewayFCM = "fcm"
)

// DeliveryWorker drains the notification queue: each trigger loads one queue
// record, sends it through the push gateway once, and marks the record
// processed with exactly one of response or error.
type DeliveryWorker struct {
	queue       repository.QueueRepository
	consumer    events.Consumer
	gateway     gateway.PushGateway
	rateLimiter ratelimit.RateLimiter
	metrics     *observability.Metrics
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

func NewDeliveryWorker(
	queue repository.QueueRepository,
	consumer events.Consumer,
	pushGateway gateway.PushGateway,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	logger *zap.Logger,
) (*DeliveryWorker, error) {
	if queue == nil {
		return nil, fmt.Errorf("queue repository is required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if pushGateway == nil {
		return nil, fmt.Errorf("push gateway is required")
	}
	if rateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if concurrency < minDeliveryConcurrency {
		concurrency = minDeliveryConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeliveryWorker{
		queue:       queue,
		consumer:    consumer,
		gateway:     pushGateway,
		rateLimiter: rateLimiter,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (w *DeliveryWorker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start runs the configured number of delivery consumers until context
// cancellation.
func (w *DeliveryWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("delivery worker started", zap.Int("workerId", workerID))

			err := w.consumer.Consume(groupCtx, events.QueueNotificationQueued, w.ProcessMessage)
			if err != nil {
				w.logger.Error("delivery worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("delivery worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

func (w *DeliveryWorker) ProcessMessage(ctx context.Context, body []byte) error {
	var msg events.NotificationQueuedMessage
	if err := events.DecodeInto(body, &msg); err != nil {
		return err
	}

	notification, err := w.queue.GetByID(ctx, msg.NotificationID)
	if errors.Is(err, domain.ErrNotFound) {
		w.logger.Warn("queue record gone before delivery, skipping",
			zap.String("notificationId", msg.NotificationID),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load queue record: %w", err)
	}

	// Redelivered trigger for an already-handled record.
	if notification.Processed {
		return nil
	}

	w.metrics.IncDeliveryInFlight()
	defer w.metrics.DecDeliveryInFlight()

	if err := w.rateLimiter.Wait(ctx, rateLimitGatewayFCM); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	sendStart := w.now()
	resp, sendErr := w.gateway.Send(ctx, gateway.Message{
		Token:    notification.Token,
		Title:    notification.Title,
		Body:     notification.Body,
		Data:     notification.Data,
		Priority: notification.Priority,
	})
	w.metrics.ObserveGatewaySendDuration(w.now().Sub(sendStart))

	if sendErr == nil {
		return w.markSent(ctx, notification, resp)
	}
	return w.markFailed(ctx, notification, sendErr)
}

func (w *DeliveryWorker) markSent(ctx context.Context, notification *domain.QueuedNotification, resp *gateway.Response) error {
	response := "delivered"
	if resp != nil && strings.TrimSpace(resp.Body) != "" {
		response = resp.Body
	}

	changed, err := w.queue.MarkProcessed(ctx, notification.ID, &response, nil)
	if err != nil {
		return fmt.Errorf("failed to mark notification processed: %w", err)
	}
	if !changed {
		// A concurrent delivery won the race; the push may have gone out twice
		// but the record stays consistent.
		w.logger.Warn("notification already marked processed",
			zap.String("notificationId", notification.ID),
		)
		return nil
	}

	w.metrics.IncNotificationSent()
	w.logger.Info("notification delivered",
		zap.String("notificationId", notification.ID),
		zap.String("priority", notification.Priority.String()),
	)
	return nil
}

// markFailed records a delivery failure terminally. Failed records are kept
// with their error message for manual remediation, not retried.
func (w *DeliveryWorker) markFailed(ctx context.Context, notification *domain.QueuedNotification, sendErr error) error {
	errMsg := sendErr.Error()

	changed, err := w.queue.MarkProcessed(ctx, notification.ID, nil, &errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	if !changed {
		return nil
	}

	reason := "permanent_error"
	if gateway.IsTransient(sendErr) {
		reason = "transient_error"
	}
	w.metrics.IncNotificationFailed(reason)

	w.logger.Error("notification delivery failed",
		zap.String("notificationId", notification.ID),
		zap.String("reason", reason),
		zap.Error(sendErr),
	)
	return nil
}
