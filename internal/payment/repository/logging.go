package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bookngo-backend/internal/payment/domain"
)

// loggingPaymentRepository instruments every store call. It is a pass-through
// decorator: a logging problem must never fail the wrapped operation, so all
// log emission is guarded by recover.
type loggingPaymentRepository struct {
	next   PaymentRepository
	logger *zap.Logger
}

func NewLoggingPaymentRepository(next PaymentRepository, logger *zap.Logger) PaymentRepository {
	return &loggingPaymentRepository{next: next, logger: logger}
}

func (r *loggingPaymentRepository) log(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

func (r *loggingPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	start := time.Now()
	payment, err := r.next.FindByID(ctx, id)
	r.log(func() {
		r.logger.Debug("payment store: find",
			zap.String("payment_id", id),
			zap.Duration("took", time.Since(start)),
			zap.Bool("found", payment != nil),
			zap.Error(err))
	})
	return payment, err
}

func (r *loggingPaymentRepository) CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	start := time.Now()
	inserted, err := r.next.CreateIfAbsent(ctx, payment)
	r.log(func() {
		r.logger.Info("payment store: create",
			zap.String("payment_id", payment.ID),
			zap.String("status", string(payment.Status)),
			zap.Bool("inserted", inserted),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
	})
	return inserted, err
}

func (r *loggingPaymentRepository) TransitionStatus(ctx context.Context, id string, status domain.PaymentStatus, updatedAt time.Time) (bool, error) {
	start := time.Now()
	applied, err := r.next.TransitionStatus(ctx, id, status, updatedAt)
	r.log(func() {
		r.logger.Info("payment store: transition",
			zap.String("payment_id", id),
			zap.String("target_status", string(status)),
			zap.Bool("applied", applied),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
	})
	return applied, err
}

func (r *loggingPaymentRepository) FindByUserID(ctx context.Context, userID string) ([]domain.Payment, error) {
	start := time.Now()
	payments, err := r.next.FindByUserID(ctx, userID)
	r.log(func() {
		r.logger.Debug("payment store: list",
			zap.String("user_id", userID),
			zap.Int("count", len(payments)),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
	})
	return payments, err
}
