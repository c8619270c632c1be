package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/domain"
	"github.com/taskhub/taskhub/internal/observability"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository interface {
	FindByUserID(userID uint) (*domain.Profile, error)
	Upsert(profile *domain.Profile) error
}

type GormProfileRepository struct{ db *gorm.DB }

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) FindByUserID(userID uint) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "profile", "find_by_user_id", "not_found")
			return nil, ErrProfileNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "profile", "find_by_user_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "profile", "find_by_user_id", "success")
	return &p, nil
}

// Upsert saves the profile, creating the row on first write for the user.
func (r *GormProfileRepository) Upsert(profile *domain.Profile) error {
	var existing domain.Profile
	err := r.db.Where("user_id = ?", profile.UserID).First(&existing).Error
	switch {
	case err == nil:
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		err = r.db.Save(profile).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = r.db.Create(profile).Error
	}
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "profile", "upsert", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "profile", "upsert", "success")
	return nil
}
