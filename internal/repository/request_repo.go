package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AcceptOutcome reports the status transition an accept produced. Before and
// After are equal when the request was already accepted, which lets the
// status-change trigger stay idempotent on replays.
type AcceptOutcome struct {
	Before  domain.RequestStatus
	After   domain.RequestStatus
	Request *domain.DonationRequest
}

type RequestRepository interface {
	Create(ctx context.Context, r *domain.DonationRequest) error
	GetByID(ctx context.Context, id string) (*domain.DonationRequest, error)
	Accept(ctx context.Context, id string, donorID string, donorName string) (*AcceptOutcome, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type GormRequestRepo struct {
	db *gorm.DB
}

func NewGormRequestRepo(db *gorm.DB) *GormRequestRepo {
	return &GormRequestRepo{db: db}
}

func (r *GormRequestRepo) Create(ctx context.Context, req *domain.DonationRequest) error {
	model := requestModelFromDomain(req)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if req != nil {
		*req = *requestModelToDomain(model)
	}
	return nil
}

func (r *GormRequestRepo) GetByID(ctx context.Context, id string) (*domain.DonationRequest, error) {
	var model RequestModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return requestModelToDomain(&model), nil
}

func (r *GormRequestRepo) Accept(ctx context.Context, id string, donorID string, donorName string) (*AcceptOutcome, error) {
	var outcome *AcceptOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model RequestModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		before := model.Status
		if before == domain.RequestStatusAccepted {
			outcome = &AcceptOutcome{
				Before:  before,
				After:   before,
				Request: requestModelToDomain(&model),
			}
			return nil
		}
		if !before.IsOpen() {
			return fmt.Errorf("%w: request %s is %s", domain.ErrConflict, id, before)
		}

		err = tx.Model(&RequestModel{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":           domain.RequestStatusAccepted,
				"accepted_by":      donorID,
				"accepted_by_name": donorName,
			}).Error
		if err != nil {
			return err
		}

		model.Status = domain.RequestStatusAccepted
		model.AcceptedBy = &donorID
		model.AcceptedByName = &donorName
		outcome = &AcceptOutcome{
			Before:  before,
			After:   domain.RequestStatusAccepted,
			Request: requestModelToDomain(&model),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// ExpireDue transitions every due open request to expired in one statement,
// stamping expired_at and clearing the donor set. Already-expired or accepted
// requests never match the status guard.
func (r *GormRequestRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	openStatuses := []domain.RequestStatus{domain.RequestStatusPending, domain.RequestStatusActive}

	result := r.db.WithContext(ctx).
		Model(&RequestModel{}).
		Where("status IN ? AND expires_at <= ?", openStatuses, now).
		Updates(map[string]any{
			"status":           domain.RequestStatusExpired,
			"expired_at":       now,
			"potential_donors": datatypes.NewJSONSlice([]string{}),
		})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
