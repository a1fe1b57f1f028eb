package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"github.com/usmankhan045/blood-donation-notifier/internal/middleware"
	"github.com/usmankhan045/blood-donation-notifier/internal/service"
)

type RequestService interface {
	Create(ctx context.Context, input service.CreateRequestInput) (*domain.DonationRequest, error)
	Accept(ctx context.Context, id string, donorID string, donorName string) (*domain.DonationRequest, error)
	GetByID(ctx context.Context, id string) (*domain.DonationRequest, error)
}

type TestPushSender interface {
	SendTest(ctx context.Context, userID string) (*domain.QueuedNotification, error)
}

type QueueReader interface {
	GetByID(ctx context.Context, id string) (*domain.QueuedNotification, error)
}

type RequestHandler struct {
	requests RequestService
	queue    QueueReader
	testPush TestPushSender
}

func NewRequestHandler(requests RequestService, queue QueueReader, testPush TestPushSender) (*RequestHandler, error) {
	if requests == nil {
		return nil, fmt.Errorf("request service is required")
	}
	if queue == nil {
		return nil, fmt.Errorf("queue reader is required")
	}
	if testPush == nil {
		return nil, fmt.Errorf("test push sender is required")
	}
	return &RequestHandler{requests: requests, queue: queue, testPush: testPush}, nil
}

// RegisterRequestRoutes mounts the API under /v1. Every route requires a
// bearer token; the caller identity comes from the token, never the body.
func RegisterRequestRoutes(router fiber.Router, requests RequestService, queue QueueReader, testPush TestPushSender, jwtSecret string) error {
	h, err := NewRequestHandler(requests, queue, testPush)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1", middleware.JWTAuth(jwtSecret))
	v1.Post("/requests", h.CreateRequest)
	v1.Post("/requests/:id/accept", h.AcceptRequest)
	v1.Get("/requests/:id", h.GetRequest)
	v1.Get("/queue/:id", h.GetQueueRecord)
	v1.Post("/notifications/test", h.SendTestNotification)

	return nil
}

type createRequestRequest struct {
	BloodType       string   `json:"bloodType"`
	City            string   `json:"city"`
	Urgency         string   `json:"urgency"`
	Units           int      `json:"units"`
	PotentialDonors []string `json:"potentialDonors"`
	ExpiresAt       string   `json:"expiresAt"`
}

type acceptRequestRequest struct {
	DonorName string `json:"donorName"`
}

type requestResponse struct {
	ID              string     `json:"id"`
	BloodType       string     `json:"bloodType"`
	City            string     `json:"city"`
	Urgency         string     `json:"urgency"`
	Units           int        `json:"units"`
	Status          string     `json:"status"`
	RequesterID     string     `json:"requesterId"`
	AcceptedBy      *string    `json:"acceptedBy,omitempty"`
	AcceptedByName  *string    `json:"acceptedByName,omitempty"`
	PotentialDonors []string   `json:"potentialDonors"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	ExpiredAt       *time.Time `json:"expiredAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type queueRecordResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	Priority    string            `json:"priority"`
	Processed   bool              `json:"processed"`
	ProcessedAt *time.Time        `json:"processedAt,omitempty"`
	Error       *string           `json:"error,omitempty"`
	Response    *string           `json:"response,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type testNotificationResponse struct {
	NotificationID string `json:"notificationId"`
	Message        string `json:"message"`
}

func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	var req createRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	urgency, err := domain.ParseUrgencyFromString(req.Urgency)
	if err != nil {
		return toHTTPError(err)
	}

	expiresAt, err := parseRFC3339Field(req.ExpiresAt, "expiresAt")
	if err != nil {
		return toHTTPError(err)
	}

	created, err := h.requests.Create(c.Context(), service.CreateRequestInput{
		BloodType:       strings.TrimSpace(req.BloodType),
		City:            strings.TrimSpace(req.City),
		Urgency:         urgency,
		Units:           req.Units,
		RequesterID:     middleware.GetUserID(c),
		PotentialDonors: req.PotentialDonors,
		ExpiresAt:       expiresAt,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toRequestResponse(created))
}

func (h *RequestHandler) AcceptRequest(c *fiber.Ctx) error {
	var req acceptRequestRequest
	if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	id := strings.TrimSpace(c.Params("id"))
	accepted, err := h.requests.Accept(c.Context(), id, middleware.GetUserID(c), strings.TrimSpace(req.DonorName))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toRequestResponse(accepted))
}

func (h *RequestHandler) GetRequest(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	req, err := h.requests.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toRequestResponse(req))
}

// GetQueueRecord exposes one queue record for delivery diagnosis. The push
// token never leaves the service.
func (h *RequestHandler) GetQueueRecord(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	record, err := h.queue.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toQueueRecordResponse(record))
}

func (h *RequestHandler) SendTestNotification(c *fiber.Ctx) error {
	notification, err := h.testPush.SendTest(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(testNotificationResponse{
		NotificationID: notification.ID,
		Message:        "Test notification sent",
	})
}

func parseRFC3339Field(value string, field string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return t, nil
}

func toRequestResponse(r *domain.DonationRequest) requestResponse {
	if r == nil {
		return requestResponse{}
	}

	return requestResponse{
		ID:              r.ID,
		BloodType:       r.BloodType,
		City:            r.City,
		Urgency:         r.Urgency.String(),
		Units:           r.Units,
		Status:          r.Status.String(),
		RequesterID:     r.RequesterID,
		AcceptedBy:      r.AcceptedBy,
		AcceptedByName:  r.AcceptedByName,
		PotentialDonors: r.PotentialDonors,
		ExpiresAt:       r.ExpiresAt,
		ExpiredAt:       r.ExpiredAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toQueueRecordResponse(n *domain.QueuedNotification) queueRecordResponse {
	if n == nil {
		return queueRecordResponse{}
	}

	return queueRecordResponse{
		ID:          n.ID,
		Title:       n.Title,
		Body:        n.Body,
		Data:        n.Data,
		Priority:    n.Priority.String(),
		Processed:   n.Processed,
		ProcessedAt: n.ProcessedAt,
		Error:       n.Error,
		Response:    n.Response,
		CreatedAt:   n.CreatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
