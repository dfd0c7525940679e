package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookngo-backend/internal/notification/domain"
)

// ChannelRegistry maps users to their registered delivery channels.
type ChannelRegistry interface {
	// Register is idempotent on (userID, address): re-registering refreshes
	// registered_at and kind instead of duplicating.
	Register(ctx context.Context, userID string, kind domain.ChannelKind, address string) error

	// Resolve returns all known channels for a user. Order is unspecified.
	Resolve(ctx context.Context, userID string) ([]domain.ChannelRegistration, error)

	// Unregister removes an address, typically after a provider reported it
	// permanently invalid.
	Unregister(ctx context.Context, address string) error
}

// channelRegistry implements ChannelRegistry
type channelRegistry struct {
	db *gorm.DB
}

func NewChannelRegistry(db *gorm.DB) ChannelRegistry {
	return &channelRegistry{
		db: db,
	}
}

// Register saves or refreshes a channel registration (atomic upsert)
func (r *channelRegistry) Register(ctx context.Context, userID string, kind domain.ChannelKind, address string) error {
	registration := &domain.ChannelRegistration{
		ID:           uuid.New().String(),
		UserID:       userID,
		Kind:         kind,
		Address:      address,
		RegisteredAt: time.Now(),
	}

	// Atomic upsert: INSERT ... ON CONFLICT (address) DO UPDATE
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "kind", "registered_at"}),
	}).Create(registration).Error
}

func (r *channelRegistry) Resolve(ctx context.Context, userID string) ([]domain.ChannelRegistration, error) {
	var channels []domain.ChannelRegistration
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *channelRegistry) Unregister(ctx context.Context, address string) error {
	return r.db.WithContext(ctx).Where("address = ?", address).Delete(&domain.ChannelRegistration{}).Error
}
