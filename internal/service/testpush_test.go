package service

import (
	"context"
	"errors"
	"testing"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"github.com/usmankhan045/blood-donation-notifier/internal/events"
)

func newTestPushService(t *testing.T, profiles *fakeProfileRepo, queue *fakeQueueRepo, publisher *fakePublisher) *TestPushService {
	t.Helper()
	s, err := NewTestPushService(profiles, queue, publisher, nil)
	if err != nil {
		t.Fatalf("NewTestPushService() error = %v", err)
	}
	return s
}

func TestSendTestHappyPath(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfileRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: id, FCMToken: strPtr("user-token")}, nil
		},
	}
	queue := &fakeQueueRepo{}
	publisher := &fakePublisher{}

	s := newTestPushService(t, profiles, queue, publisher)

	notification, err := s.SendTest(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("SendTest() error = %v", err)
	}

	if notification.Token != "user-token" {
		t.Fatalf("token = %q, want user-token", notification.Token)
	}
	if notification.Data["type"] != "test" {
		t.Fatalf("data.type = %q, want test", notification.Data["type"])
	}
	if notification.Data["userId"] != "user-1" {
		t.Fatalf("data.userId = %q, want user-1", notification.Data["userId"])
	}
	if notification.Priority != domain.PriorityNormal {
		t.Fatalf("priority = %s, want normal", notification.Priority)
	}

	published := publisher.allPublished()
	if len(published) != 1 {
		t.Fatalf("published %d messages, want 1", len(published))
	}
	if published[0].queue != events.QueueNotificationQueued {
		t.Fatalf("published to %s, want %s", published[0].queue, events.QueueNotificationQueued)
	}
}

func TestSendTestUnauthenticated(t *testing.T) {
	t.Parallel()

	s := newTestPushService(t, &fakeProfileRepo{}, &fakeQueueRepo{}, &fakePublisher{})

	if _, err := s.SendTest(context.Background(), "  "); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("SendTest() error = %v, want ErrUnauthenticated", err)
	}
}

func TestSendTestNoProfile(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfileRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.UserProfile, error) {
			return nil, domain.ErrNotFound
		},
	}

	s := newTestPushService(t, profiles, &fakeQueueRepo{}, &fakePublisher{})

	if _, err := s.SendTest(context.Background(), "user-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("SendTest() error = %v, want ErrNotFound", err)
	}
}

func TestSendTestNoToken(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfileRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: id}, nil
		},
	}
	queue := &fakeQueueRepo{}

	s := newTestPushService(t, profiles, queue, &fakePublisher{})

	if _, err := s.SendTest(context.Background(), "user-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("SendTest() error = %v, want ErrNotFound", err)
	}
	if got := len(queue.allEnqueued()); got != 0 {
		t.Fatalf("enqueued %d notifications, want 0", got)
	}
}

func TestSendTestPublishFailure(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfileRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: id, FCMToken: strPtr("user-token")}, nil
		},
	}
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queue string, msg events.Message) error {
			return errors.New("broker unavailable")
		},
	}

	s := newTestPushService(t, profiles, &fakeQueueRepo{}, publisher)

	if _, err := s.SendTest(context.Background(), "user-1"); err == nil {
		t.Fatal("SendTest() expected error when publish fails")
	}
}
