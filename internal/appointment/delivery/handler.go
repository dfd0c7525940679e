package delivery

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookngo-backend/internal/appointment/usecase"
	authdelivery "bookngo-backend/internal/auth/delivery"
)

// AppointmentHandler handles appointment HTTP requests
type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
	}
}

// CreateAppointmentRequest represents the request body for booking
type CreateAppointmentRequest struct {
	ServiceName string  `json:"service_name" binding:"required"`
	Notes       string  `json:"notes"`
	Price       float64 `json:"price"`
	StartsAt    string  `json:"starts_at" binding:"required"`
}

// Create books an appointment (and its payment intent when priced)
// POST /api/appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "starts_at must be RFC3339"})
		return
	}

	appointment, err := h.appointmentUsecase.Create(c.Request.Context(), user.ID, usecase.CreateInput{
		ServiceName: req.ServiceName,
		Notes:       req.Notes,
		Price:       req.Price,
		StartsAt:    startsAt,
		PayerEmail:  user.Email,
		PayerDoc:    user.Document,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// List returns the caller's appointments
// GET /api/appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	userID := c.GetString("userID")
	appointments, err := h.appointmentUsecase.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

// Get returns one appointment owned by the caller
// GET /api/appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	userID := c.GetString("userID")
	appointment, err := h.appointmentUsecase.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondAppointmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

// CheckIn marks the caller as arrived
// POST /api/appointments/:id/checkin
func (h *AppointmentHandler) CheckIn(c *gin.Context) {
	userID := c.GetString("userID")
	appointment, err := h.appointmentUsecase.CheckIn(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondAppointmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

// Cancel cancels a booking
// DELETE /api/appointments/:id
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.appointmentUsecase.Cancel(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondAppointmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "appointment cancelled"})
}

func respondAppointmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
	case errors.Is(err, usecase.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
