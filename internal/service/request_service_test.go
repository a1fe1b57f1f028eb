package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"github.com/usmankhan045/blood-donation-notifier/internal/events"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
)

func validCreateInput() CreateRequestInput {
	return CreateRequestInput{
		BloodType:       "O-",
		City:            "Istanbul",
		Urgency:         domain.UrgencyEmergency,
		Units:           2,
		RequesterID:     "requester-1",
		PotentialDonors: []string{"donor-1", "donor-2"},
		ExpiresAt:       time.Now().Add(24 * time.Hour),
	}
}

func TestRequestServiceCreateHappyPath(t *testing.T) {
	t.Parallel()

	repo := &fakeRequestRepo{
		createFn: func(ctx context.Context, r *domain.DonationRequest) error {
			if r.Status != domain.RequestStatusPending {
				t.Fatalf("status = %s, want pending", r.Status)
			}
			if r.ID == "" {
				t.Fatal("request id should be generated")
			}
			return nil
		},
	}
	publisher := &fakePublisher{}

	svc, err := NewRequestService(repo, publisher, nil)
	if err != nil {
		t.Fatalf("NewRequestService() error = %v", err)
	}

	req, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	published := publisher.allPublished()
	if len(published) != 1 {
		t.Fatalf("published %d messages, want 1", len(published))
	}
	if published[0].queue != events.QueueRequestCreated {
		t.Fatalf("published to %s, want %s", published[0].queue, events.QueueRequestCreated)
	}

	msg, ok := published[0].msg.(events.RequestCreatedMessage)
	if !ok {
		t.Fatalf("published message type = %T", published[0].msg)
	}
	if msg.RequestID != req.ID {
		t.Fatalf("message request id = %s, want %s", msg.RequestID, req.ID)
	}
}

func TestRequestServiceCreateValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewRequestService(&fakeRequestRepo{}, &fakePublisher{}, nil)
	if err != nil {
		t.Fatalf("NewRequestService() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*CreateRequestInput)
	}{
		{name: "missing blood type", mutate: func(in *CreateRequestInput) { in.BloodType = "" }},
		{name: "missing city", mutate: func(in *CreateRequestInput) { in.City = "" }},
		{name: "invalid urgency", mutate: func(in *CreateRequestInput) { in.Urgency = "asap" }},
		{name: "zero units", mutate: func(in *CreateRequestInput) { in.Units = 0 }},
		{name: "missing requester", mutate: func(in *CreateRequestInput) { in.RequesterID = "" }},
		{name: "expiry in the past", mutate: func(in *CreateRequestInput) { in.ExpiresAt = time.Now().Add(-time.Hour) }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := validCreateInput()
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), input)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRequestServiceCreatePublishFailure(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queue string, msg events.Message) error {
			return errors.New("broker unavailable")
		},
	}

	svc, err := NewRequestService(&fakeRequestRepo{}, publisher, nil)
	if err != nil {
		t.Fatalf("NewRequestService() error = %v", err)
	}

	if _, err := svc.Create(context.Background(), validCreateInput()); err == nil {
		t.Fatal("Create() expected error when publish fails")
	}
}

func TestRequestServiceAcceptPublishesTransition(t *testing.T) {
	t.Parallel()

	accepted := &domain.DonationRequest{
		ID:     "req-1",
		Status: domain.RequestStatusAccepted,
	}
	repo := &fakeRequestRepo{
		acceptFn: func(ctx context.Context, id, donorID, donorName string) (*repository.AcceptOutcome, error) {
			if donorID != "donor-1" {
				t.Fatalf("donor id = %s, want donor-1", donorID)
			}
			return &repository.AcceptOutcome{
				Before:  domain.RequestStatusPending,
				After:   domain.RequestStatusAccepted,
				Request: accepted,
			}, nil
		},
	}
	publisher := &fakePublisher{}

	svc, err := NewRequestService(repo, publisher, nil)
	if err != nil {
		t.Fatalf("NewRequestService() error = %v", err)
	}

	req, err := svc.Accept(context.Background(), "req-1", "donor-1", "Jane Doe")
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if req.Status != domain.RequestStatusAccepted {
		t.Fatalf("status = %s, want accepted", req.Status)
	}

	published := publisher.allPublished()
	if len(published) != 1 {
		t.Fatalf("published %d messages, want 1", len(published))
	}
	if published[0].queue != events.QueueRequestStatusChanged {
		t.Fatalf("published to %s, want %s", published[0].queue, events.QueueRequestStatusChanged)
	}

	msg, ok := published[0].msg.(events.RequestStatusChangedMessage)
	if !ok {
		t.Fatalf("published message type = %T", published[0].msg)
	}
	if msg.Before != domain.RequestStatusPending || msg.After != domain.RequestStatusAccepted {
		t.Fatalf("transition = %s -> %s, want pending -> accepted", msg.Before, msg.After)
	}
}

func TestRequestServiceAcceptAlreadyAcceptedPublishesNothing(t *testing.T) {
	t.Parallel()

	repo := &fakeRequestRepo{
		acceptFn: func(ctx context.Context, id, donorID, donorName string) (*repository.AcceptOutcome, error) {
			return &repository.AcceptOutcome{
				Before:  domain.RequestStatusAccepted,
				After:   domain.RequestStatusAccepted,
				Request: &domain.DonationRequest{ID: id, Status: domain.RequestStatusAccepted},
			}, nil
		},
	}
	publisher := &fakePublisher{}

	svc, err := NewRequestService(repo, publisher, nil)
	if err != nil {
		t.Fatalf("NewRequestService() error = %v", err)
	}

	if _, err := svc.Accept(context.Background(), "req-1", "donor-2", ""); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if got := len(publisher.allPublished()); got != 0 {
		t.Fatalf("published %d messages, want 0", got)
	}
}

func TestRequestServiceAcceptConflict(t *testing.T) {
	t.Parallel()

	repo := &fakeRequestRepo{
		acceptFn: func(ctx context.Context, id, donorID, donorName string) (*repository.AcceptOutcome, error) {
			return nil, domain.ErrConflict
		},
	}

	svc, err := NewRequestService(repo, &fakePublisher{}, nil)
	if err != nil {
		t.Fatalf("NewRequestService() error = %v", err)
	}

	if _, err := svc.Accept(context.Background(), "req-1", "donor-1", ""); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Accept() error = %v, want ErrConflict", err)
	}
}
