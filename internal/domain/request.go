package domain

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus represents the lifecycle state of a donation request.
// Transitions are monotonic: pending -> active -> {accepted, expired}.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusActive   RequestStatus = "active"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusExpired  RequestStatus = "expired"
)

func (s RequestStatus) String() string { return string(s) }

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusActive, RequestStatusAccepted, RequestStatusExpired:
		return true
	}
	return false
}

// IsOpen reports whether a request can still be accepted or expired.
func (s RequestStatus) IsOpen() bool {
	return s == RequestStatusPending || s == RequestStatusActive
}

func ParseRequestStatusFromString(s string) (RequestStatus, error) {
	st := RequestStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid request status %q", ErrValidation, s)
	}
	return st, nil
}

// Urgency represents how urgent a donation request is.
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) String() string { return string(u) }

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyNormal, UrgencyEmergency:
		return true
	}
	return false
}

func ParseUrgencyFromString(s string) (Urgency, error) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	if !u.IsValid() {
		return "", fmt.Errorf("%w: invalid urgency %q", ErrValidation, s)
	}
	return u, nil
}

// DonationRequest is a request for blood donors.
type DonationRequest struct {
	ID              string
	BloodType       string
	City            string
	Urgency         Urgency
	Units           int
	Status          RequestStatus
	RequesterID     string
	AcceptedBy      *string
	AcceptedByName  *string
	PotentialDonors []string
	ExpiresAt       time.Time
	ExpiredAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r *DonationRequest) Validate() error {
	if strings.TrimSpace(r.BloodType) == "" {
		return fmt.Errorf("%w: blood type is required", ErrValidation)
	}
	if strings.TrimSpace(r.City) == "" {
		return fmt.Errorf("%w: city is required", ErrValidation)
	}
	if !r.Urgency.IsValid() {
		return fmt.Errorf("%w: invalid urgency %q", ErrValidation, r.Urgency)
	}
	if r.Units < 1 {
		return fmt.Errorf("%w: units must be >= 1 (got %d)", ErrValidation, r.Units)
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: invalid request status %q", ErrValidation, r.Status)
	}
	if strings.TrimSpace(r.RequesterID) == "" {
		return fmt.Errorf("%w: requester id is required", ErrValidation)
	}
	if r.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: expiry time is required", ErrValidation)
	}
	return nil
}
