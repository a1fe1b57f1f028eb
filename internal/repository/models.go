package repository

import (
	"time"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"gorm.io/datatypes"
)

// RequestModel is the persistence model for the donation_requests table.
type RequestModel struct {
	ID              string                      `gorm:"type:uuid;primaryKey"`
	BloodType       string                      `gorm:"type:varchar(8);not null"`
	City            string                      `gorm:"type:varchar(120);not null"`
	Urgency         domain.Urgency              `gorm:"type:varchar(10);not null"`
	Units           int                         `gorm:"not null"`
	Status          domain.RequestStatus        `gorm:"type:varchar(10);not null"`
	RequesterID     string                      `gorm:"type:varchar(64);not null"`
	AcceptedBy      *string                     `gorm:"type:varchar(64)"`
	AcceptedByName  *string                     `gorm:"type:varchar(120)"`
	PotentialDonors datatypes.JSONSlice[string] `gorm:"not null"`
	ExpiresAt       time.Time                   `gorm:"type:timestamptz;not null"`
	ExpiredAt       *time.Time                  `gorm:"type:timestamptz"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (RequestModel) TableName() string {
	return "donation_requests"
}

// ProfileModel is the persistence model for user_profiles. Profiles are
// written by the account system; this service treats the table as read-only.
type ProfileModel struct {
	ID        string  `gorm:"type:varchar(64);primaryKey"`
	FCMToken  *string `gorm:"type:text"`
	City      string  `gorm:"type:varchar(120)"`
	BloodType string  `gorm:"type:varchar(8)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProfileModel) TableName() string {
	return "user_profiles"
}

// QueuedNotificationModel is the persistence model for notification_queue.
type QueuedNotificationModel struct {
	ID          string                                `gorm:"type:uuid;primaryKey"`
	Token       string                                `gorm:"type:text;not null"`
	Title       string                                `gorm:"type:text;not null"`
	Body        string                                `gorm:"type:text;not null"`
	Data        datatypes.JSONType[map[string]string] `gorm:""`
	Priority    domain.Priority                       `gorm:"type:varchar(10);not null"`
	Processed   bool                                  `gorm:"not null;default:false"`
	ProcessedAt *time.Time                            `gorm:"type:timestamptz"`
	Error       *string                               `gorm:"type:text"`
	Response    *string                               `gorm:"type:text"`
	CreatedAt   time.Time
}

func (QueuedNotificationModel) TableName() string {
	return "notification_queue"
}

func requestModelFromDomain(r *domain.DonationRequest) *RequestModel {
	if r == nil {
		return nil
	}

	return &RequestModel{
		ID:              r.ID,
		BloodType:       r.BloodType,
		City:            r.City,
		Urgency:         r.Urgency,
		Units:           r.Units,
		Status:          r.Status,
		RequesterID:     r.RequesterID,
		AcceptedBy:      r.AcceptedBy,
		AcceptedByName:  r.AcceptedByName,
		PotentialDonors: datatypes.NewJSONSlice(r.PotentialDonors),
		ExpiresAt:       r.ExpiresAt,
		ExpiredAt:       r.ExpiredAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func requestModelToDomain(m *RequestModel) *domain.DonationRequest {
	if m == nil {
		return nil
	}

	return &domain.DonationRequest{
		ID:              m.ID,
		BloodType:       m.BloodType,
		City:            m.City,
		Urgency:         m.Urgency,
		Units:           m.Units,
		Status:          m.Status,
		RequesterID:     m.RequesterID,
		AcceptedBy:      m.AcceptedBy,
		AcceptedByName:  m.AcceptedByName,
		PotentialDonors: []string(m.PotentialDonors),
		ExpiresAt:       m.ExpiresAt,
		ExpiredAt:       m.ExpiredAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func profileModelToDomain(m *ProfileModel) *domain.UserProfile {
	if m == nil {
		return nil
	}

	return &domain.UserProfile{
		ID:        m.ID,
		FCMToken:  m.FCMToken,
		City:      m.City,
		BloodType: m.BloodType,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func notificationModelFromDomain(n *domain.QueuedNotification) *QueuedNotificationModel {
	if n == nil {
		return nil
	}

	return &QueuedNotificationModel{
		ID:          n.ID,
		Token:       n.Token,
		Title:       n.Title,
		Body:        n.Body,
		Data:        datatypes.NewJSONType(n.Data),
		Priority:    n.Priority,
		Processed:   n.Processed,
		ProcessedAt: n.ProcessedAt,
		Error:       n.Error,
		Response:    n.Response,
		CreatedAt:   n.CreatedAt,
	}
}

func notificationModelToDomain(m *QueuedNotificationModel) *domain.QueuedNotification {
	if m == nil {
		return nil
	}

	return &domain.QueuedNotification{
		ID:          m.ID,
		Token:       m.Token,
		Title:       m.Title,
		Body:        m.Body,
		Data:        m.Data.Data(),
		Priority:    m.Priority,
		Processed:   m.Processed,
		ProcessedAt: m.ProcessedAt,
		Error:       m.Error,
		Response:    m.Response,
		CreatedAt:   m.CreatedAt,
	}
}
