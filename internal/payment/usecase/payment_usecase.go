package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"bookngo-backend/internal/payment/domain"
	"bookngo-backend/internal/payment/repository"
	"bookngo-backend/pkg/mercadopago"
)

var ErrPaymentNotFound = errors.New("payment not found")

// paymentUsecase implements PaymentUsecase
type paymentUsecase struct {
	repo       repository.PaymentRepository
	gateway    Gateway
	reconciler *Reconciler
	logger     *zap.Logger
}

func NewPaymentUsecase(repo repository.PaymentRepository, gateway Gateway, reconciler *Reconciler, logger *zap.Logger) PaymentUsecase {
	return &paymentUsecase{
		repo:       repo,
		gateway:    gateway,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (u *paymentUsecase) Create(ctx context.Context, userID string, input CreatePaymentInput) (*domain.Payment, error) {
	created, err := u.gateway.CreatePayment(ctx, mercadopago.CreatePaymentRequest{
		Amount:        input.Amount,
		Description:   input.Description,
		PayerEmail:    input.PayerEmail,
		PayerDocument: input.PayerDocument,
	})
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:                  created.ID,
		Status:              domain.PaymentStatus(created.Status),
		Amount:              input.Amount,
		Description:         input.Description,
		PayerEmail:          input.PayerEmail,
		PayerDocument:       input.PayerDocument,
		UserID:              userID,
		LinkedAppointmentID: input.LinkedAppointmentID,
		QRPayload:           created.QRPayload,
		CreatedAt:           time.Now(),
		LastUpdatedAt:       created.LastUpdatedAt,
	}
	if _, err := u.repo.CreateIfAbsent(ctx, payment); err != nil {
		return nil, err
	}

	u.logger.Info("payment intent created",
		zap.String("payment_id", payment.ID),
		zap.String("user_id", userID),
		zap.Float64("amount", input.Amount))
	return payment, nil
}

func (u *paymentUsecase) Poll(ctx context.Context, id string) (*domain.Payment, error) {
	fetched, err := u.gateway.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	// Reconciliation outlives the session that triggered it: the webhook may
	// be completing the same transition, and a torn-down poller must not
	// cancel the persist.
	reconcileCtx := context.WithoutCancel(ctx)
	if _, err := u.reconciler.Reconcile(reconcileCtx, domain.StatusUpdate{
		ID:            fetched.ID,
		Status:        domain.PaymentStatus(fetched.Status),
		LastUpdatedAt: fetched.LastUpdatedAt,
		Source:        domain.SourcePoll,
	}); err != nil {
		return nil, err
	}

	return u.GetByID(ctx, id)
}

func (u *paymentUsecase) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (u *paymentUsecase) ListByUser(ctx context.Context, userID string) ([]domain.Payment, error) {
	return u.repo.FindByUserID(ctx, userID)
}
