package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
)

// buildRequestNotification renders the fan-out push for one donor token.
// Emergency requests get the louder title and high delivery priority.
func buildRequestNotification(req *domain.DonationRequest, token string) *domain.QueuedNotification {
	title := fmt.Sprintf("Blood Request: %s Needed", req.BloodType)
	priority := domain.PriorityNormal
	if req.Urgency == domain.UrgencyEmergency {
		title = fmt.Sprintf("EMERGENCY: %s Blood Needed!", req.BloodType)
		priority = domain.PriorityHigh
	}

	return &domain.QueuedNotification{
		Token: token,
		Title: title,
		Body:  fmt.Sprintf("%s blood needed - %d unit(s) required. Tap to respond.", req.BloodType, req.Units),
		Data: map[string]string{
			"type":         "blood_request",
			"requestId":    req.ID,
			"bloodType":    req.BloodType,
			"urgency":      req.Urgency.String(),
			"units":        strconv.Itoa(req.Units),
			"click_action": "FLUTTER_NOTIFICATION_CLICK",
		},
		Priority: priority,
	}
}

// buildAcceptanceNotification renders the push sent back to the requester
// when a donor accepts. Acceptance always goes out at high priority.
func buildAcceptanceNotification(req *domain.DonationRequest, token string) *domain.QueuedNotification {
	donorName := "a donor"
	if req.AcceptedByName != nil && *req.AcceptedByName != "" {
		donorName = *req.AcceptedByName
	}

	acceptedBy := ""
	if req.AcceptedBy != nil {
		acceptedBy = *req.AcceptedBy
	}

	return &domain.QueuedNotification{
		Token: token,
		Title: "Request Accepted!",
		Body:  fmt.Sprintf("Your %s blood request has been accepted by %s", req.BloodType, donorName),
		Data: map[string]string{
			"type":       "request_accepted",
			"requestId":  req.ID,
			"acceptedBy": acceptedBy,
		},
		Priority: domain.PriorityHigh,
	}
}

// buildTestNotification renders the diagnostic push for the manual trigger.
func buildTestNotification(userID string, token string, now time.Time) *domain.QueuedNotification {
	return &domain.QueuedNotification{
		Token: token,
		Title: "Test Notification",
		Body:  "Your FCM notifications are working perfectly!",
		Data: map[string]string{
			"type":      "test",
			"userId":    userID,
			"timestamp": now.UTC().Format(time.RFC3339),
		},
		Priority: domain.PriorityNormal,
	}
}
