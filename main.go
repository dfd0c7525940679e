package main

import (
	"log"

	api "bookngo-backend/cmd/api"
	appointmentDelivery "bookngo-backend/internal/appointment/delivery"
	appointmentDomain "bookngo-backend/internal/appointment/domain"
	appointmentRepo "bookngo-backend/internal/appointment/repository"
	"bookngo-backend/internal/appointment/scheduler"
	appointmentUsecase "bookngo-backend/internal/appointment/usecase"
	authdomain "bookngo-backend/internal/auth/domain"
	authRepo "bookngo-backend/internal/auth/repository"
	authUsecase "bookngo-backend/internal/auth/usecase"
	notifDelivery "bookngo-backend/internal/notification/delivery"
	notifDomain "bookngo-backend/internal/notification/domain"
	notifRepo "bookngo-backend/internal/notification/repository"
	notifUsecase "bookngo-backend/internal/notification/usecase"
	paymentDelivery "bookngo-backend/internal/payment/delivery"
	paymentDomain "bookngo-backend/internal/payment/domain"
	paymentRepo "bookngo-backend/internal/payment/repository"
	paymentUsecase "bookngo-backend/internal/payment/usecase"
	"bookngo-backend/pkg/config"
	"bookngo-backend/pkg/database"
	"bookngo-backend/pkg/fcm"
	"bookngo-backend/pkg/logger"
	"bookngo-backend/pkg/mercadopago"
	"bookngo-backend/pkg/push"
	"bookngo-backend/pkg/webpush"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zapLogger, err := logger.New()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&paymentDomain.Payment{},
		&notifDomain.NotificationPreference{},
		&notifDomain.ChannelRegistration{},
		&notifDomain.SmartNotification{},
		&appointmentDomain.Appointment{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	paymentRepository := paymentRepo.NewLoggingPaymentRepository(paymentRepo.NewPaymentRepository(db), zapLogger)
	channelRegistry := notifRepo.NewLoggingChannelRegistry(notifRepo.NewChannelRegistry(db), zapLogger)
	preferenceRepository := notifRepo.NewPreferenceRepository(db)
	notificationRepository := notifRepo.NewNotificationRepository(db)
	appointmentRepository := appointmentRepo.NewAppointmentRepository(db)

	// Initialize channel senders. A missing provider credential disables that
	// channel kind only; dispatch reports the failure per send.
	senders := map[notifDomain.ChannelKind]push.Sender{
		notifDomain.ChannelKindWebPush: webpush.NewSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject),
	}
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		} else {
			senders[notifDomain.ChannelKindFCMToken] = fcmClient.TokenSender()
			senders[notifDomain.ChannelKindNativePush] = fcmClient.NativeSender()
		}
	} else {
		log.Printf("[WARN] No Firebase credentials configured, FCM disabled")
	}

	// Notification pipeline
	resolver := notifUsecase.NewPreferenceResolver(preferenceRepository, zapLogger)
	dispatcher := notifUsecase.NewDispatcher(resolver, channelRegistry, notificationRepository, senders, cfg.ChannelSendTimeout, zapLogger)
	settlementNotifier := notifUsecase.NewSettlementNotifier(dispatcher, zapLogger)

	// Payment pipeline
	gateway := mercadopago.NewClient(cfg.MercadoPagoAccessToken, cfg.MercadoPagoBaseURL, cfg.MercadoPagoTimeout)
	reconciler := paymentUsecase.NewReconciler(paymentRepository, settlementNotifier, zapLogger)
	paymentUc := paymentUsecase.NewPaymentUsecase(paymentRepository, gateway, reconciler, zapLogger)

	// Appointments
	appointmentUc := appointmentUsecase.NewAppointmentUsecase(appointmentRepository, paymentUc, dispatcher)
	reminderScheduler := scheduler.NewReminderScheduler(appointmentRepository, dispatcher, cfg.ReminderLeadTime)
	reminderScheduler.Start()
	defer reminderScheduler.Stop()

	// Auth
	authUc := authUsecase.NewAuthUsecase(userRepo, cfg)

	// HTTP handlers
	paymentHandler := paymentDelivery.NewPaymentHandler(paymentUc)
	webhookHandler := paymentDelivery.NewWebhookHandler(gateway, reconciler, zapLogger)
	notificationHandler := notifDelivery.NewNotificationHandler(channelRegistry, preferenceRepository, notificationRepository, resolver, dispatcher, userRepo)
	appointmentHandler := appointmentDelivery.NewAppointmentHandler(appointmentUc)

	handler := api.NewHandler(authUc, paymentHandler, webhookHandler, notificationHandler, appointmentHandler)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
