package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appointmentDelivery "bookngo-backend/internal/appointment/delivery"
	"bookngo-backend/internal/auth/delivery"
	authUsecase "bookngo-backend/internal/auth/usecase"
	notifDelivery "bookngo-backend/internal/notification/delivery"
	paymentDelivery "bookngo-backend/internal/payment/delivery"
)

func SetupRoutes(
	r *gin.Engine,
	authUc authUsecase.AuthUsecase,
	authHandler *delivery.AuthHandler,
	paymentHandler *paymentDelivery.PaymentHandler,
	webhookHandler *paymentDelivery.WebhookHandler,
	notificationHandler *notifDelivery.NotificationHandler,
	appointmentHandler *appointmentDelivery.AppointmentHandler,
) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", delivery.AuthMiddleware(authUc), authHandler.Me)
		}

		// Gateway webhooks (no auth: the sender is the payment gateway)
		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/mercadopago", webhookHandler.HandleMercadoPago)
		}

		// Payment routes (protected)
		payments := api.Group("/payments")
		payments.Use(delivery.AuthMiddleware(authUc))
		{
			payments.POST("", paymentHandler.Create)
			payments.GET("", paymentHandler.List)
			payments.GET("/:id", paymentHandler.Get)
			payments.POST("/:id/poll", paymentHandler.Poll)
		}

		// Channel routes (protected)
		channels := api.Group("/channels")
		channels.Use(delivery.AuthMiddleware(authUc))
		{
			channels.POST("", notificationHandler.RegisterChannel)
			channels.DELETE("/:address", notificationHandler.UnregisterChannel)
		}

		// Preference routes (protected)
		preferences := api.Group("/preferences")
		preferences.Use(delivery.AuthMiddleware(authUc))
		{
			preferences.GET("", notificationHandler.GetPreferences)
			preferences.PUT("", notificationHandler.UpdatePreferences)
			preferences.POST("/reset", notificationHandler.ResetPreferences)
		}

		// Notification feed (protected)
		notifications := api.Group("/notifications")
		notifications.Use(delivery.AuthMiddleware(authUc))
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		}

		// Appointment routes (protected)
		appointments := api.Group("/appointments")
		appointments.Use(delivery.AuthMiddleware(authUc))
		{
			appointments.POST("", appointmentHandler.Create)
			appointments.GET("", appointmentHandler.List)
			appointments.GET("/:id", appointmentHandler.Get)
			appointments.POST("/:id/checkin", appointmentHandler.CheckIn)
			appointments.DELETE("/:id", appointmentHandler.Cancel)
		}

		// Admin routes (protected, admin only)
		admin := api.Group("/admin")
		admin.Use(delivery.AuthMiddleware(authUc), delivery.AdminMiddleware())
		{
			admin.POST("/broadcast", notificationHandler.Broadcast)
		}
	}
}
