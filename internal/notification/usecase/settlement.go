package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bookngo-backend/internal/notification/domain"
	paymentdomain "bookngo-backend/internal/payment/domain"
)

// SettlementNotifier bridges payment settlement events into the dispatcher.
// It satisfies the payment reconciler's publisher interface.
type SettlementNotifier struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewSettlementNotifier(dispatcher *Dispatcher, logger *zap.Logger) *SettlementNotifier {
	return &SettlementNotifier{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// PublishSettled turns the settlement into a notification event. An approved
// payment renders payment_proof; a rejected or cancelled one renders
// payment_pending, since the booking's payment is still outstanding and the
// user should retry. Delivery is best-effort and detached from the
// reconciler's lifetime.
func (n *SettlementNotifier) PublishSettled(ctx context.Context, event paymentdomain.PaymentSettled) {
	if event.UserID == "" {
		// First observation of a payment this backend never created: there
		// is no recipient to notify.
		n.logger.Info("settlement without known user, skipping notification",
			zap.String("payment_id", event.ID))
		return
	}

	notifType := domain.TypePaymentProof
	if event.Status != paymentdomain.PaymentStatusApproved {
		notifType = domain.TypePaymentPending
	}

	notifEvent := domain.Event{
		Type:    notifType,
		UserIDs: []string{event.UserID},
		Data: map[string]string{
			"payment_id": event.ID,
			"status":     string(event.Status),
			"amount":     fmt.Sprintf("R$ %.2f", event.Amount),
		},
	}
	if event.LinkedAppointmentID != "" {
		notifEvent.Data["appointment_id"] = event.LinkedAppointmentID
		notifEvent.ActionURL = "/appointments/" + event.LinkedAppointmentID
	}

	go n.dispatcher.Dispatch(context.WithoutCancel(ctx), notifEvent)
}
