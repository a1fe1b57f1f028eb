package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"github.com/usmankhan045/blood-donation-notifier/internal/events"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
)

// CreateRequestInput carries the caller-supplied fields of a new request.
type CreateRequestInput struct {
	BloodType       string
	City            string
	Urgency         domain.Urgency
	Units           int
	RequesterID     string
	PotentialDonors []string
	ExpiresAt       time.Time
}

// RequestService owns the donation request lifecycle and announces every
// mutation on the bus so the pipeline units can react.
type RequestService struct {
	requests  repository.RequestRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewRequestService(
	requests repository.RequestRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) (*RequestService, error) {
	if requests == nil {
		return nil, fmt.Errorf("request repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RequestService{
		requests:  requests,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (s *RequestService) Create(ctx context.Context, input CreateRequestInput) (*domain.DonationRequest, error) {
	req := &domain.DonationRequest{
		ID:              uuid.NewString(),
		BloodType:       input.BloodType,
		City:            input.City,
		Urgency:         input.Urgency,
		Units:           input.Units,
		Status:          domain.RequestStatusPending,
		RequesterID:     input.RequesterID,
		PotentialDonors: input.PotentialDonors,
		ExpiresAt:       input.ExpiresAt,
		CreatedAt:       s.now().UTC(),
	}
	req.UpdatedAt = req.CreatedAt

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.ExpiresAt.After(s.now()) {
		return nil, fmt.Errorf("%w: expiry time must be in the future", domain.ErrValidation)
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	msg := events.RequestCreatedMessage{RequestID: req.ID}
	if err := s.publisher.Publish(ctx, events.QueueRequestCreated, msg); err != nil {
		return nil, fmt.Errorf("request %s created but fan-out trigger failed: %w", req.ID, err)
	}

	s.logger.Info("donation request created",
		zap.String("requestId", req.ID),
		zap.String("bloodType", req.BloodType),
		zap.String("city", req.City),
		zap.String("urgency", req.Urgency.String()),
		zap.Int("potentialDonors", len(req.PotentialDonors)),
	)

	return req, nil
}

// Accept transitions an open request to accepted and announces the observed
// status pair. Re-accepting an already-accepted request is a no-op and
// publishes nothing.
func (s *RequestService) Accept(ctx context.Context, id string, donorID string, donorName string) (*domain.DonationRequest, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}
	if donorID == "" {
		return nil, fmt.Errorf("%w: donor id is required", domain.ErrValidation)
	}

	outcome, err := s.requests.Accept(ctx, id, donorID, donorName)
	if err != nil {
		return nil, err
	}

	if outcome.Before != outcome.After {
		msg := events.RequestStatusChangedMessage{
			RequestID: id,
			Before:    outcome.Before,
			After:     outcome.After,
		}
		if err := s.publisher.Publish(ctx, events.QueueRequestStatusChanged, msg); err != nil {
			return nil, fmt.Errorf("request %s accepted but status trigger failed: %w", id, err)
		}

		s.logger.Info("donation request accepted",
			zap.String("requestId", id),
			zap.String("donorId", donorID),
			zap.String("before", outcome.Before.String()),
		)
	}

	return outcome.Request, nil
}

func (s *RequestService) GetByID(ctx context.Context, id string) (*domain.DonationRequest, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}
	return s.requests.GetByID(ctx, id)
}
