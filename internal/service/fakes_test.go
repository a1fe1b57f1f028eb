package service

import (
	"context"
	"sync"
	"time"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"github.com/usmankhan045/blood-donation-notifier/internal/events"
	"github.com/usmankhan045/blood-donation-notifier/internal/gateway"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
)

type fakeRequestRepo struct {
	createFn    func(ctx context.Context, r *domain.DonationRequest) error
	getByIDFn   func(ctx context.Context, id string) (*domain.DonationRequest, error)
	acceptFn    func(ctx context.Context, id, donorID, donorName string) (*repository.AcceptOutcome, error)
	expireDueFn func(ctx context.Context, now time.Time) (int64, error)
}

func (f *fakeRequestRepo) Create(ctx context.Context, r *domain.DonationRequest) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, r)
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id string) (*domain.DonationRequest, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeRequestRepo) Accept(ctx context.Context, id, donorID, donorName string) (*repository.AcceptOutcome, error) {
	if f.acceptFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.acceptFn(ctx, id, donorID, donorName)
}

func (f *fakeRequestRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	if f.expireDueFn == nil {
		return 0, nil
	}
	return f.expireDueFn(ctx, now)
}

type fakeProfileRepo struct {
	getByIDFn  func(ctx context.Context, id string) (*domain.UserProfile, error)
	getByIDsFn func(ctx context.Context, ids []string) ([]domain.UserProfile, error)

	mu       sync.Mutex
	batchLog [][]string
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeProfileRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error) {
	f.mu.Lock()
	batch := make([]string, len(ids))
	copy(batch, ids)
	f.batchLog = append(f.batchLog, batch)
	f.mu.Unlock()

	if f.getByIDsFn == nil {
		return nil, nil
	}
	return f.getByIDsFn(ctx, ids)
}

func (f *fakeProfileRepo) batches() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.batchLog))
	copy(out, f.batchLog)
	return out
}

type fakeQueueRepo struct {
	enqueueFn               func(ctx context.Context, n *domain.QueuedNotification) error
	getByIDFn               func(ctx context.Context, id string) (*domain.QueuedNotification, error)
	markProcessedFn         func(ctx context.Context, id string, response, errMsg *string) (bool, error)
	deleteProcessedBeforeFn func(ctx context.Context, cutoff time.Time) (int64, error)
	countPendingFn          func(ctx context.Context) (int64, error)

	mu       sync.Mutex
	enqueued []domain.QueuedNotification
}

func (f *fakeQueueRepo) Enqueue(ctx context.Context, n *domain.QueuedNotification) error {
	f.mu.Lock()
	f.enqueued = append(f.enqueued, *n)
	f.mu.Unlock()

	if f.enqueueFn == nil {
		return nil
	}
	return f.enqueueFn(ctx, n)
}

func (f *fakeQueueRepo) GetByID(ctx context.Context, id string) (*domain.QueuedNotification, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeQueueRepo) MarkProcessed(ctx context.Context, id string, response, errMsg *string) (bool, error) {
	if f.markProcessedFn == nil {
		return true, nil
	}
	return f.markProcessedFn(ctx, id, response, errMsg)
}

func (f *fakeQueueRepo) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.deleteProcessedBeforeFn == nil {
		return 0, nil
	}
	return f.deleteProcessedBeforeFn(ctx, cutoff)
}

func (f *fakeQueueRepo) CountPending(ctx context.Context) (int64, error) {
	if f.countPendingFn == nil {
		return 0, nil
	}
	return f.countPendingFn(ctx)
}

func (f *fakeQueueRepo) allEnqueued() []domain.QueuedNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.QueuedNotification, len(f.enqueued))
	copy(out, f.enqueued)
	return out
}

type publishedMessage struct {
	queue string
	msg   events.Message
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queue string, msg events.Message) error

	mu        sync.Mutex
	published []publishedMessage
}

func (f *fakePublisher) Publish(ctx context.Context, queue string, msg events.Message) error {
	f.mu.Lock()
	f.published = append(f.published, publishedMessage{queue: queue, msg: msg})
	f.mu.Unlock()

	if f.publishFn == nil {
		return nil
	}
	return f.publishFn(ctx, queue, msg)
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) allPublished() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishedMessage, len(f.published))
	copy(out, f.published)
	return out
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queue string, handler events.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queue string, handler events.MessageHandler) error {
	if f.consumeFn == nil {
		<-ctx.Done()
		return nil
	}
	return f.consumeFn(ctx, queue, handler)
}

func (f *fakeConsumer) Close() error { return nil }

type fakePushGateway struct {
	sendFn func(ctx context.Context, msg gateway.Message) (*gateway.Response, error)

	mu   sync.Mutex
	sent []gateway.Message
}

func (f *fakePushGateway) Send(ctx context.Context, msg gateway.Message) (*gateway.Response, error) {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	if f.sendFn == nil {
		return &gateway.Response{StatusCode: 200, Body: `{"ok":true}`}, nil
	}
	return f.sendFn(ctx, msg)
}

func (f *fakePushGateway) allSent() []gateway.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]gateway.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

type audienceSend struct {
	audience gateway.Audience
	title    string
	body     string
}

type fakeTagGateway struct {
	sendToAudienceFn func(ctx context.Context, audience gateway.Audience, title, body string, data map[string]string) (*gateway.Response, error)

	mu    sync.Mutex
	sends []audienceSend
}

func (f *fakeTagGateway) SendToAudience(ctx context.Context, audience gateway.Audience, title, body string, data map[string]string) (*gateway.Response, error) {
	f.mu.Lock()
	f.sends = append(f.sends, audienceSend{audience: audience, title: title, body: body})
	f.mu.Unlock()

	if f.sendToAudienceFn == nil {
		return &gateway.Response{StatusCode: 200, MessageID: "broadcast-1"}, nil
	}
	return f.sendToAudienceFn(ctx, audience, title, body, data)
}

func (f *fakeTagGateway) allSends() []audienceSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]audienceSend, len(f.sends))
	copy(out, f.sends)
	return out
}

type fakeRateLimiter struct {
	waitFn func(ctx context.Context, gatewayName string) error

	mu    sync.Mutex
	waits []string
}

func (f *fakeRateLimiter) Allow(ctx context.Context, gatewayName string) (bool, error) {
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, gatewayName string) error {
	f.mu.Lock()
	f.waits = append(f.waits, gatewayName)
	f.mu.Unlock()

	if f.waitFn == nil {
		return nil
	}
	return f.waitFn(ctx, gatewayName)
}

func strPtr(s string) *string { return &s }
