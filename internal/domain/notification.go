package domain

import (
	"fmt"
	"strings"
	"time"
)

// Priority represents push delivery priority.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func (p Priority) String() string { return string(p) }

func (p Priority) IsValid() bool {
	switch p {
	case PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

func ParsePriorityFromString(s string) (Priority, error) {
	pr := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !pr.IsValid() {
		return "", fmt.Errorf("%w: invalid priority %q", ErrValidation, s)
	}
	return pr, nil
}

// QueuedNotification is one pending or completed push delivery attempt.
// A record moves processed=false -> processed=true exactly once; after that
// it is immutable until the retention sweep deletes it.
type QueuedNotification struct {
	ID          string
	Token       string
	Title       string
	Body        string
	Data        map[string]string
	Priority    Priority
	Processed   bool
	ProcessedAt *time.Time
	Error       *string
	Response    *string
	CreatedAt   time.Time
}

func (n *QueuedNotification) Validate() error {
	if strings.TrimSpace(n.Token) == "" {
		return fmt.Errorf("%w: token is required", ErrValidation)
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(n.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrValidation)
	}
	if !n.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, n.Priority)
	}
	return nil
}
