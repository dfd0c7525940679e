package repository

import (
	"time"

	"bookngo-backend/internal/appointment/domain"
)

// AppointmentRepository defines the interface for appointment persistence
type AppointmentRepository interface {
	Create(appointment *domain.Appointment) error
	FindByID(id string) (*domain.Appointment, error)
	FindByUserID(userID string) ([]domain.Appointment, error)
	Update(appointment *domain.Appointment) error

	// FindDueReminders returns scheduled appointments starting within lead
	// that have not been reminded yet.
	FindDueReminders(now time.Time, lead time.Duration) ([]domain.Appointment, error)

	// FindLate returns scheduled appointments whose start has passed without
	// a check-in and that have not been flagged late yet.
	FindLate(now time.Time) ([]domain.Appointment, error)
}
