package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
)

// RequestCreatedMessage announces a newly created donation request.
type RequestCreatedMessage struct {
	RequestID string `json:"requestId"`
}

func (m RequestCreatedMessage) Validate() error {
	if strings.TrimSpace(m.RequestID) == "" {
		return fmt.Errorf("requestId is required")
	}
	return nil
}

func (m RequestCreatedMessage) MessageID() string { return m.RequestID }

// RequestStatusChangedMessage announces a status transition on a donation
// request, carrying the observed before/after pair.
type RequestStatusChangedMessage struct {
	RequestID string               `json:"requestId"`
	Before    domain.RequestStatus `json:"before"`
	After     domain.RequestStatus `json:"after"`
}

func (m RequestStatusChangedMessage) Validate() error {
	if strings.TrimSpace(m.RequestID) == "" {
		return fmt.Errorf("requestId is required")
	}
	if !m.Before.IsValid() {
		return fmt.Errorf("invalid before status %q", m.Before)
	}
	if !m.After.IsValid() {
		return fmt.Errorf("invalid after status %q", m.After)
	}
	return nil
}

func (m RequestStatusChangedMessage) MessageID() string { return m.RequestID }

// NotificationQueuedMessage triggers delivery of one queue record.
type NotificationQueuedMessage struct {
	NotificationID string          `json:"notificationId"`
	Priority       domain.Priority `json:"priority"`
}

func (m NotificationQueuedMessage) Validate() error {
	if strings.TrimSpace(m.NotificationID) == "" {
		return fmt.Errorf("notificationId is required")
	}
	if !m.Priority.IsValid() {
		return fmt.Errorf("invalid priority %q", m.Priority)
	}
	return nil
}

func (m NotificationQueuedMessage) MessageID() string { return m.NotificationID }

func (m NotificationQueuedMessage) AMQPPriority() uint8 { return PriorityValue(m.Priority) }

// DecodeInto unmarshals and validates a delivery body. Failures wrap
// ErrBadMessage so the consumer routes the delivery to the dead-letter queue.
func DecodeInto(body []byte, msg Message) error {
	if err := json.Unmarshal(body, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return nil
}
