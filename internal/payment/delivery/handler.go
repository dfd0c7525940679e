package delivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authdelivery "bookngo-backend/internal/auth/delivery"
	"bookngo-backend/internal/payment/usecase"
	"bookngo-backend/pkg/mercadopago"
)

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	paymentUsecase usecase.PaymentUsecase
}

func NewPaymentHandler(paymentUsecase usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{
		paymentUsecase: paymentUsecase,
	}
}

// CreatePaymentRequest is the checkout request body
type CreatePaymentRequest struct {
	Amount        float64 `json:"amount" binding:"required"`
	Description   string  `json:"description"`
	AppointmentID string  `json:"appointment_id"`
}

// Create creates a payment intent at the gateway
// POST /api/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.paymentUsecase.Create(c.Request.Context(), user.ID, usecase.CreatePaymentInput{
		Amount:              req.Amount,
		Description:         req.Description,
		PayerEmail:          user.Email,
		PayerDocument:       user.Document,
		LinkedAppointmentID: req.AppointmentID,
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// Get returns the stored payment for display. This read is unguarded: it may
// briefly lag a transition that was just persisted.
// GET /api/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	payment, err := h.paymentUsecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	if user == nil || (payment.UserID != user.ID && !user.IsAdmin) {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Poll re-fetches gateway status and reconciles it (source=poll)
// POST /api/payments/:id/poll
func (h *PaymentHandler) Poll(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	payment, err := h.paymentUsecase.Poll(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	if payment.UserID != user.ID && !user.IsAdmin {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// List returns the user's payments
// GET /api/payments
func (h *PaymentHandler) List(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	payments, err := h.paymentUsecase.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// respondPaymentError maps the gateway error taxonomy onto HTTP. Transient
// gateway failures come back retryable so the client shows a loading state
// instead of an error page.
func respondPaymentError(c *gin.Context, err error) {
	var validationErr *mercadopago.ValidationError
	var transientErr *mercadopago.TransientError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &transientErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment gateway unavailable", "retryable": true})
	case errors.Is(err, mercadopago.ErrMissingCredentials):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment gateway not configured"})
	case errors.Is(err, usecase.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
