package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/usmankhan045/blood-donation-notifier/internal/chunk"
	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"github.com/usmankhan045/blood-donation-notifier/internal/events"
	"github.com/usmankhan045/blood-donation-notifier/internal/gateway"
	"github.com/usmankhan045/blood-donation-notifier/internal/observability"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
)

// Dispatcher fans a new donation request out to its potential donors,
// queueing one push per registered token.
type Dispatcher struct {
	requests   repository.RequestRepository
	profiles   repository.ProfileRepository
	queue      repository.QueueRepository
	consumer   events.Consumer
	publisher  events.Publisher
	tagGateway gateway.TagGateway
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewDispatcher(
	requests repository.RequestRepository,
	profiles repository.ProfileRepository,
	queue repository.QueueRepository,
	consumer events.Consumer,
	publisher events.Publisher,
	logger *zap.Logger,
) (*Dispatcher, error) {
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

	return &Dispatcher{
		requests:  requests,
		profiles:  profiles,
		queue:     queue,
		consumer:  consumer,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// SetTagGateway enables the optional tag-addressed broadcast alongside the
// token fan-out. Broadcast failures are logged, never fatal.
func (d *Dispatcher) SetTagGateway(tg gateway.TagGateway) {
	if d == nil {
		return
	}
	d.tagGateway = tg
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Start consumes fan-out triggers until context cancellation.
func (d *Dispatcher) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return d.consumer.Consume(ctx, events.QueueRequestCreated, d.HandleRequestCreated)
}

func (d *Dispatcher) HandleRequestCreated(ctx context.Context, body []byte) error {
	var msg events.RequestCreatedMessage
	if err := events.DecodeInto(body, &msg); err != nil {
		return err
	}

	req, err := d.requests.GetByID(ctx, msg.RequestID)
	if errors.Is(err, domain.ErrNotFound) {
		d.logger.Warn("request gone before fan-out, skipping",
			zap.String("requestId", msg.RequestID),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load request for fan-out: %w", err)
	}

	if !req.Status.IsOpen() {
		d.logger.Info("request no longer open, skipping fan-out",
			zap.String("requestId", req.ID),
			zap.String("status", req.Status.String()),
		)
		return nil
	}

	if len(req.PotentialDonors) == 0 {
		d.logger.Info("no potential donors for request",
			zap.String("requestId", req.ID),
		)
		return nil
	}

	queued, skipped, err := d.fanOut(ctx, req)
	if err != nil {
		return err
	}

	d.logger.Info("fan-out complete",
		zap.String("requestId", req.ID),
		zap.Int("queued", queued),
		zap.Int("skippedNoToken", skipped),
	)

	d.broadcastToAudience(ctx, req)
	return nil
}

// fanOut looks donors up in bounded batches and queues one push per token.
// Batches run sequentially; deliveries within a batch queue in parallel.
func (d *Dispatcher) fanOut(ctx context.Context, req *domain.DonationRequest) (int, int, error) {
	var queued, skipped int

	for _, batch := range chunk.Split(req.PotentialDonors, repository.MaxProfileIDsPerQuery) {
		profiles, err := d.profiles.GetByIDs(ctx, batch)
		if err != nil {
			return queued, skipped, fmt.Errorf("failed to load donor profiles: %w", err)
		}

		results := make([]bool, len(profiles))
		g, groupCtx := errgroup.WithContext(ctx)
		for i := range profiles {
			i := i
			profile := profiles[i]

			if !profile.HasToken() {
				skipped++
				d.metrics.IncDonorSkippedNoToken()
				d.logger.Debug("donor has no push token, skipping",
					zap.String("requestId", req.ID),
					zap.String("donorId", profile.ID),
				)
				continue
			}

			g.Go(func() error {
				if err := d.queueForDonor(groupCtx, req, &profile); err != nil {
					return err
				}
				results[i] = true
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return queued, skipped, err
		}
		for _, ok := range results {
			if ok {
				queued++
			}
		}
	}

	return queued, skipped, nil
}

func (d *Dispatcher) queueForDonor(ctx context.Context, req *domain.DonationRequest, profile *domain.UserProfile) error {
	notification := buildRequestNotification(req, profile.Token())
	notification.ID = uuid.NewString()
	notification.CreatedAt = d.now().UTC()

	if err := d.queue.Enqueue(ctx, notification); err != nil {
		return fmt.Errorf("failed to enqueue notification for donor %s: %w", profile.ID, err)
	}

	msg := events.NotificationQueuedMessage{
		NotificationID: notification.ID,
		Priority:       notification.Priority,
	}
	if err := d.publisher.Publish(ctx, events.QueueNotificationQueued, msg); err != nil {
		return fmt.Errorf("failed to publish delivery trigger for donor %s: %w", profile.ID, err)
	}

	d.metrics.IncNotificationQueued("fan_out")
	return nil
}

func (d *Dispatcher) broadcastToAudience(ctx context.Context, req *domain.DonationRequest) {
	if d.tagGateway == nil {
		return
	}

	template := buildRequestNotification(req, "tag-audience")
	audience := gateway.Audience{City: req.City, BloodType: req.BloodType}

	resp, err := d.tagGateway.SendToAudience(ctx, audience, template.Title, template.Body, template.Data)
	if err != nil {
		d.logger.Warn("audience broadcast failed",
			zap.String("requestId", req.ID),
			zap.String("city", req.City),
			zap.String("bloodType", req.BloodType),
			zap.Error(err),
		)
		return
	}

	d.logger.Info("audience broadcast sent",
		zap.String("requestId", req.ID),
		zap.String("messageId", resp.MessageID),
	)
}
