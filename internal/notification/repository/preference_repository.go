package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookngo-backend/internal/notification/domain"
)

// PreferenceRepository stores per-user notification preferences.
type PreferenceRepository interface {
	// Get returns the stored preference or nil when the user never saved one.
	Get(ctx context.Context, userID string) (*domain.NotificationPreference, error)

	// Save upserts the full preference row.
	Save(ctx context.Context, pref *domain.NotificationPreference) error

	// Reset restores system defaults. Preferences are never deleted.
	Reset(ctx context.Context, userID string) (*domain.NotificationPreference, error)
}

type preferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{
		db: db,
	}
}

func (r *preferenceRepository) Get(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	var pref domain.NotificationPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

func (r *preferenceRepository) Save(ctx context.Context, pref *domain.NotificationPreference) error {
	pref.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(pref).Error
}

func (r *preferenceRepository) Reset(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	pref := domain.DefaultPreference(userID)
	if err := r.Save(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}
