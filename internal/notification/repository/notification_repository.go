package repository

import (
	"context"

	"gorm.io/gorm"

	"bookngo-backend/internal/notification/domain"
)

// NotificationRepository keeps delivery bookkeeping: notifications that
// passed the preference filter are stored so the client can list them and
// mark them read.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.SmartNotification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.SmartNotification, error)

	// MarkRead flips the read flag. Scoped to the owning user: the dispatcher
	// never mutates read state.
	MarkRead(ctx context.Context, userID, notificationID string) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.SmartNotification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.SmartNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var notifications []domain.SmartNotification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	return r.db.WithContext(ctx).
		Model(&domain.SmartNotification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true).Error
}
