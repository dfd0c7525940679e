package api

import (
	"github.com/gin-gonic/gin"

	appointmentDelivery "bookngo-backend/internal/appointment/delivery"
	"bookngo-backend/internal/auth/delivery"
	authUsecase "bookngo-backend/internal/auth/usecase"
	notifDelivery "bookngo-backend/internal/notification/delivery"
	paymentDelivery "bookngo-backend/internal/payment/delivery"
)

type Handler struct {
	authUsecase         authUsecase.AuthUsecase
	authHandler         *delivery.AuthHandler
	paymentHandler      *paymentDelivery.PaymentHandler
	webhookHandler      *paymentDelivery.WebhookHandler
	notificationHandler *notifDelivery.NotificationHandler
	appointmentHandler  *appointmentDelivery.AppointmentHandler
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	paymentHandler *paymentDelivery.PaymentHandler,
	webhookHandler *paymentDelivery.WebhookHandler,
	notificationHandler *notifDelivery.NotificationHandler,
	appointmentHandler *appointmentDelivery.AppointmentHandler,
) *Handler {
	return &Handler{
		authUsecase:         authUc,
		authHandler:         delivery.NewAuthHandler(authUc),
		paymentHandler:      paymentHandler,
		webhookHandler:      webhookHandler,
		notificationHandler: notificationHandler,
		appointmentHandler:  appointmentHandler,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.authHandler, h.paymentHandler, h.webhookHandler, h.notificationHandler, h.appointmentHandler)

	return r.Run(addr)
}
