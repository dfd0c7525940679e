package usecase

import (
	"context"

	"go.uber.org/zap"

	"bookngo-backend/internal/payment/domain"
	"bookngo-backend/internal/payment/repository"
)

// SettlementPublisher receives the settlement event after the terminal status
// has been persisted. Implementations are best-effort and must not block the
// reconciler on delivery problems.
type SettlementPublisher interface {
	PublishSettled(ctx context.Context, event domain.PaymentSettled)
}

// Reconciler merges status updates from the webhook and polling paths into
// the payment store. It is a pure state-transition function: idempotent under
// at-least-once delivery, safe under concurrent arrival from both sources for
// the same id, and it never retries.
type Reconciler struct {
	repo      repository.PaymentRepository
	publisher SettlementPublisher
	logger    *zap.Logger
}

func NewReconciler(repo repository.PaymentRepository, publisher SettlementPublisher, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Reconcile applies one candidate update. It returns true when the update
// changed stored state. A stale or already-terminal input is a logged no-op,
// not an error.
func (r *Reconciler) Reconcile(ctx context.Context, update domain.StatusUpdate) (bool, error) {
	record, err := r.repo.FindByID(ctx, update.ID)
	if err != nil {
		return false, err
	}

	if record == nil {
		// First observation. The system must tolerate seeing a payment it
		// never saw as pending, e.g. a webhook that beats the checkout write.
		created := &domain.Payment{
			ID:            update.ID,
			Status:        update.Status,
			LastUpdatedAt: update.LastUpdatedAt,
		}
		inserted, err := r.repo.CreateIfAbsent(ctx, created)
		if err != nil {
			return false, err
		}
		if inserted {
			if update.Status.IsTerminal() {
				r.publishSettled(ctx, created)
			}
			return true, nil
		}
		// Lost the insert race; re-read and fall through to the CAS path.
		record, err = r.repo.FindByID(ctx, update.ID)
		if err != nil {
			return false, err
		}
		if record == nil {
			return false, nil
		}
	}

	if record.Status.IsTerminal() {
		r.logger.Info("reconcile: record already terminal, update ignored",
			zap.String("payment_id", update.ID),
			zap.String("stored_status", string(record.Status)),
			zap.String("update_status", string(update.Status)),
			zap.String("source", string(update.Source)))
		return false, nil
	}

	// The conditional UPDATE carries both guards: only a still-pending record
	// with last_updated_at <= update.LastUpdatedAt is touched. A pending
	// target just refreshes the ordering key.
	applied, err := r.repo.TransitionStatus(ctx, update.ID, update.Status, update.LastUpdatedAt)
	if err != nil {
		return false, err
	}
	if !applied {
		r.logger.Info("reconcile: stale update ignored",
			zap.String("payment_id", update.ID),
			zap.String("update_status", string(update.Status)),
			zap.Time("update_last_updated_at", update.LastUpdatedAt),
			zap.String("source", string(update.Source)))
		return false, nil
	}

	if update.Status.IsTerminal() {
		// Persist happened-before publish: a crash here loses at most the
		// event, and a later poll finds the record terminal and skips
		// re-emission. The CAS means only one caller reaches this point.
		settled, err := r.repo.FindByID(ctx, update.ID)
		if err != nil || settled == nil {
			settled = &domain.Payment{ID: update.ID, Status: update.Status}
		}
		settled.Status = update.Status
		r.publishSettled(ctx, settled)
	}
	return true, nil
}

func (r *Reconciler) publishSettled(ctx context.Context, payment *domain.Payment) {
	if r.publisher == nil {
		return
	}
	r.logger.Info("payment settled",
		zap.String("payment_id", payment.ID),
		zap.String("status", string(payment.Status)),
		zap.String("user_id", payment.UserID))
	r.publisher.PublishSettled(ctx, domain.PaymentSettled{
		ID:                  payment.ID,
		Status:              payment.Status,
		UserID:              payment.UserID,
		Amount:              payment.Amount,
		LinkedAppointmentID: payment.LinkedAppointmentID,
	})
}
