// Package gateway contains the outbound push delivery ports and their
// HTTP implementations.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
)

// Message is a single device-targeted push.
type Message struct {
	Token    string
	Title    string
	Body     string
	Data     map[string]string
	Priority domain.Priority
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.Token) == "" {
		return fmt.Errorf("token is required")
	}
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("body is required")
	}
	if !m.Priority.IsValid() {
		return fmt.Errorf("invalid priority %q", m.Priority)
	}
	return nil
}

// Audience targets every device whose profile tags match the filter.
type Audience struct {
	City      string
	BloodType string
}

func (a Audience) Validate() error {
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("city is required")
	}
	if strings.TrimSpace(a.BloodType) == "" {
		return fmt.Errorf("bloodType is required")
	}
	return nil
}

// PushGateway is the token-addressed delivery port.
type PushGateway interface {
	Send(ctx context.Context, msg Message) (*Response, error)
}

// TagGateway is the tag-addressed broadcast port.
type TagGateway interface {
	SendToAudience(ctx context.Context, audience Audience, title, body string, data map[string]string) (*Response, error)
}

// Response stores gateway call metadata for audit and persistence.
type Response struct {
	StatusCode int
	Body       string
	MessageID  string
}
