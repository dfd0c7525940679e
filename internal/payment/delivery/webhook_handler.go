package delivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookngo-backend/internal/payment/domain"
	"bookngo-backend/internal/payment/usecase"
)

// WebhookHandler receives gateway callbacks (the push path).
type WebhookHandler struct {
	gateway    usecase.Gateway
	reconciler *usecase.Reconciler
	logger     *zap.Logger
}

func NewWebhookHandler(gateway usecase.Gateway, reconciler *usecase.Reconciler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		gateway:    gateway,
		reconciler: reconciler,
		logger:     logger,
	}
}

type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleMercadoPago processes a payment webhook. The body is a hint, not
// authoritative: only the payment id is read, and the current status is
// always re-fetched from the gateway. The endpoint answers 200 no matter
// what, so the sender's retry storm is never mistaken for delivery failure;
// internal errors are logged only.
// POST /api/webhooks/mercadopago
func (h *WebhookHandler) HandleMercadoPago(c *gin.Context) {
	var body webhookBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Warn("webhook: unreadable body", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	if body.Type != "payment" || body.Data.ID == "" {
		c.Status(http.StatusOK)
		return
	}

	// Detached from the request: reconciliation must complete even if the
	// sender hangs up right after our 200.
	ctx := context.WithoutCancel(c.Request.Context())

	fetched, err := h.gateway.GetPayment(ctx, body.Data.ID)
	if err != nil {
		h.logger.Error("webhook: status re-fetch failed",
			zap.String("payment_id", body.Data.ID), zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	if _, err := h.reconciler.Reconcile(ctx, domain.StatusUpdate{
		ID:            fetched.ID,
		Status:        domain.PaymentStatus(fetched.Status),
		LastUpdatedAt: fetched.LastUpdatedAt,
		Source:        domain.SourcePush,
	}); err != nil {
		h.logger.Error("webhook: reconcile failed",
			zap.String("payment_id", body.Data.ID), zap.Error(err))
	}

	c.Status(http.StatusOK)
}
