package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
	"gorm.io/gorm"
)

// MaxProfileIDsPerQuery caps the size of an id-set lookup. Callers partition
// larger sets; the repository rejects oversize input rather than truncating.
const MaxProfileIDsPerQuery = 10

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error)
}

type GormProfileRepo struct {
	db *gorm.DB
}

func NewGormProfileRepo(db *gorm.DB) *GormProfileRepo {
	return &GormProfileRepo{db: db}
}

func (r *GormProfileRepo) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	var model ProfileModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profileModelToDomain(&model), nil
}

// GetByIDs returns the profiles that exist for the given ids; missing ids are
// simply absent from the result.
func (r *GormProfileRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxProfileIDsPerQuery {
		return nil, fmt.Errorf("%w: at most %d profile ids per query (got %d)",
			domain.ErrValidation, MaxProfileIDsPerQuery, len(ids))
	}

	var models []ProfileModel
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.UserProfile, 0, len(models))
	for i := range models {
		profiles = append(profiles, *profileModelToDomain(&models[i]))
	}

	return profiles, nil
}
