package repository

import (
	"context"
	"time"

	"bookngo-backend/internal/payment/domain"
)

// PaymentRepository is the payment state store. It is the single shared
// mutable resource of the payment subsystem; all status mutation goes through
// TransitionStatus.
type PaymentRepository interface {
	// FindByID returns the stored payment or nil when none exists.
	FindByID(ctx context.Context, id string) (*domain.Payment, error)

	// CreateIfAbsent inserts the record unless one with the same id already
	// exists. Returns true when this call inserted it.
	CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error)

	// TransitionStatus atomically applies a status transition, but only while
	// the stored record is still pending and not newer than updatedAt.
	// Returns true when the transition was applied. This compare-and-set is
	// the subsystem's only mutual-exclusion point; contention is per id.
	TransitionStatus(ctx context.Context, id string, status domain.PaymentStatus, updatedAt time.Time) (bool, error)

	// FindByUserID lists a user's payments for display, newest first.
	FindByUserID(ctx context.Context, userID string) ([]domain.Payment, error)
}
