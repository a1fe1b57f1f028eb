package repository

import (
	"context"
	"errors"
	"time"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"gorm.io/gorm"
)

type QueueRepository interface {
	Enqueue(ctx context.Context, n *domain.QueuedNotification) error
	GetByID(ctx context.Context, id string) (*domain.QueuedNotification, error)
	MarkProcessed(ctx context.Context, id string, response *string, errMsg *string) (bool, error)
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountPending(ctx context.Context) (int64, error)
}

type GormQueueRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormQueueRepo(db *gorm.DB) *GormQueueRepo {
	return &GormQueueRepo{db: db, now: time.Now}
}

func (r *GormQueueRepo) Enqueue(ctx context.Context, n *domain.QueuedNotification) error {
	model := notificationModelFromDomain(n)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if n != nil {
		*n = *notificationModelToDomain(model)
	}
	return nil
}

func (r *GormQueueRepo) GetByID(ctx context.Context, id string) (*domain.QueuedNotification, error) {
	var model QueuedNotificationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notificationModelToDomain(&model), nil
}

// MarkProcessed flips processed=false -> true exactly once, storing the
// gateway response or error message. It reports false without error when the
// record was already processed, so redelivered triggers become no-ops.
func (r *GormQueueRepo) MarkProcessed(ctx context.Context, id string, response *string, errMsg *string) (bool, error) {
	updates := map[string]any{
		"processed":    true,
		"processed_at": r.now().UTC(),
		"response":     response,
		"error":        errMsg,
	}

	result := r.db.WithContext(ctx).
		Model(&QueuedNotificationModel{}).
		Where("id = ? AND processed = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&QueuedNotificationModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, domain.ErrNotFound
	}

	return false, nil
}

// DeleteProcessedBefore removes processed records older than the cutoff in a
// single batch. Unprocessed records are never deleted regardless of age, so
// stuck deliveries stay visible for diagnosis.
func (r *GormQueueRepo) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("processed = ? AND created_at < ?", true, cutoff).
		Delete(&QueuedNotificationModel{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (r *GormQueueRepo) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&QueuedNotificationModel{}).
		Where("processed = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
