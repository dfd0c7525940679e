package usecase

import (
	"context"

	"bookngo-backend/internal/payment/domain"
	"bookngo-backend/pkg/mercadopago"
)

// Gateway is the narrow surface of the payment gateway client the usecase
// needs. Satisfied by *mercadopago.Client.
type Gateway interface {
	CreatePayment(ctx context.Context, req mercadopago.CreatePaymentRequest) (*mercadopago.Payment, error)
	GetPayment(ctx context.Context, id string) (*mercadopago.Payment, error)
}

// CreatePaymentInput is the checkout request from the client.
type CreatePaymentInput struct {
	Amount              float64
	Description         string
	PayerEmail          string
	PayerDocument       string
	LinkedAppointmentID string
}

// PaymentUsecase drives the payment lifecycle: intent creation, the polling
// reconciliation path, and read-only lookups for display.
type PaymentUsecase interface {
	Create(ctx context.Context, userID string, input CreatePaymentInput) (*domain.Payment, error)

	// Poll re-fetches the gateway status and runs it through the reconciler
	// (source=poll). The returned record reflects the store after the
	// attempt. Retry/backoff on transient gateway errors belongs to the
	// caller.
	Poll(ctx context.Context, id string) (*domain.Payment, error)

	// GetByID is the unguarded read used by the UI. It may lag a transition
	// that has been persisted but not yet observed; it never re-triggers
	// business effects.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	ListByUser(ctx context.Context, userID string) ([]domain.Payment, error)
}
