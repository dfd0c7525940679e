package scheduler

import (
	"context"
	"log"
	"time"

	"bookngo-backend/internal/appointment/repository"
	notifdomain "bookngo-backend/internal/notification/domain"
	notifusecase "bookngo-backend/internal/notification/usecase"
)

// EventDispatcher is satisfied by *notifusecase.Dispatcher.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event notifdomain.Event) notifusecase.DispatchResult
}

// ReminderScheduler sends appointment reminders and late notices through the
// dispatcher.
type ReminderScheduler struct {
	repo       repository.AppointmentRepository
	dispatcher EventDispatcher
	lead       time.Duration
	interval   time.Duration
	stopChan   chan struct{}
}

// NewReminderScheduler creates a new scheduler
func NewReminderScheduler(repo repository.AppointmentRepository, dispatcher EventDispatcher, lead time.Duration) *ReminderScheduler {
	return &ReminderScheduler{
		repo:       repo,
		dispatcher: dispatcher,
		lead:       lead,
		interval:   1 * time.Minute, // Check every minute
		stopChan:   make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *ReminderScheduler) Start() {
	log.Printf("[Scheduler] Starting appointment reminder scheduler (interval: %s, lead: %s)", s.interval, s.lead)

	go func() {
		// Run immediately on start
		s.tick()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.stopChan:
				log.Println("[Scheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *ReminderScheduler) Stop() {
	close(s.stopChan)
}

func (s *ReminderScheduler) tick() {
	now := time.Now()
	s.sendReminders(now)
	s.sendLateNotices(now)
}

func (s *ReminderScheduler) sendReminders(now time.Time) {
	due, err := s.repo.FindDueReminders(now, s.lead)
	if err != nil {
		log.Printf("[Scheduler] Error finding due reminders: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	log.Printf("[Scheduler] Found %d appointments due for a reminder", len(due))

	for _, appointment := range due {
		s.dispatcher.Dispatch(context.Background(), notifdomain.Event{
			Type:    notifdomain.TypeAppointmentReminder,
			UserIDs: []string{appointment.UserID},
			Data: map[string]string{
				"service": appointment.ServiceName,
				"time":    appointment.StartsAt.Format("15:04"),
			},
			ActionURL: "/appointments/" + appointment.ID,
		})

		appointment.ReminderSent = true
		if err := s.repo.Update(&appointment); err != nil {
			log.Printf("[Scheduler] Error marking reminder sent for %s: %v", appointment.ID, err)
		}
	}
}

func (s *ReminderScheduler) sendLateNotices(now time.Time) {
	late, err := s.repo.FindLate(now)
	if err != nil {
		log.Printf("[Scheduler] Error finding late appointments: %v", err)
		return
	}

	for _, appointment := range late {
		s.dispatcher.Dispatch(context.Background(), notifdomain.Event{
			Type:    notifdomain.TypeAppointmentLate,
			UserIDs: []string{appointment.UserID},
			Data: map[string]string{
				"service": appointment.ServiceName,
			},
			ActionURL: "/appointments/" + appointment.ID,
		})

		appointment.LateNotified = true
		if err := s.repo.Update(&appointment); err != nil {
			log.Printf("[Scheduler] Error marking late notice for %s: %v", appointment.ID, err)
		}
	}
}
