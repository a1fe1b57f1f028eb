// Package events is the bus between store writes and the pipeline units.
// Services publish typed messages after mutating a store; handlers subscribe
// per queue, so the storage layer carries no hidden dispatch coupling.
package events

import (
	"context"
	"errors"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
)

const (
	// QueueRequestCreated carries fan-out triggers for new donation requests.
	QueueRequestCreated = "request.created"
	// QueueRequestStatusChanged carries before/after status transitions.
	QueueRequestStatusChanged = "request.updated"
	// QueueNotificationQueued carries delivery triggers for queue records.
	QueueNotificationQueued = "notification.queued"
)

// ErrBadMessage marks an undecodable or invalid message. The consumer rejects
// such deliveries to the dead-letter queue instead of requeueing them.
var ErrBadMessage = errors.New("bad message")

// Message is a publishable bus payload.
type Message interface {
	Validate() error
}

// Publisher publishes messages to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg Message) error
	Close() error
}

// MessageHandler handles one consumed delivery body.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer consumes deliveries from a named queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// AllQueueNames lists every work queue the topology declares.
func AllQueueNames() []string {
	return []string{
		QueueRequestCreated,
		QueueRequestStatusChanged,
		QueueNotificationQueued,
	}
}

// DLQName returns the dead-letter queue for a work queue, e.g. dlq.request.created.
func DLQName(queue string) string {
	return "dlq." + queue
}

// PriorityValue maps domain priority to RabbitMQ message priority.
func PriorityValue(priority domain.Priority) uint8 {
	switch priority {
	case domain.PriorityHigh:
		return 2
	case domain.PriorityNormal:
		return 1
	default:
		return 0
	}
}
