package domain

import (
	"strings"
	"time"
)

// UserProfile is a donor or requester account. Profiles are owned by the
// account system; this service only reads them.
type UserProfile struct {
	ID        string
	FCMToken  *string
	City      string
	BloodType string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasToken reports whether the profile has a usable push registration.
func (p *UserProfile) HasToken() bool {
	return p != nil && p.FCMToken != nil && strings.TrimSpace(*p.FCMToken) != ""
}

// Token returns the registered push token or an empty string.
func (p *UserProfile) Token() string {
	if !p.HasToken() {
		return ""
	}
	return strings.TrimSpace(*p.FCMToken)
}
