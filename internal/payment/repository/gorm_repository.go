package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookngo-backend/internal/payment/domain"
)

// paymentRepository implements PaymentRepository on postgres
type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{
		db: db,
	}
}

func (r *paymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// CreateIfAbsent inserts the first observation of a payment. A concurrent
// insert for the same id loses the race silently (ON CONFLICT DO NOTHING)
// and the caller falls through to the CAS path.
func (r *paymentRepository) CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(payment)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// TransitionStatus is a single conditional UPDATE: the WHERE clause encodes
// both the terminal-monotonicity guard (status must still be pending) and the
// stale-update guard (stored last_updated_at must not be newer).
func (r *paymentRepository) TransitionStatus(ctx context.Context, id string, status domain.PaymentStatus, updatedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND status = ? AND last_updated_at <= ?", id, domain.PaymentStatusPending, updatedAt).
		Updates(map[string]interface{}{
			"status":          status,
			"last_updated_at": updatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *paymentRepository) FindByUserID(ctx context.Context, userID string) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
