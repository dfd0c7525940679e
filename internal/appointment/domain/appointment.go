package domain

import "time"

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCheckedIn AppointmentStatus = "checked_in"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is one booking. PaymentID back-references the payment intent
// created at booking time, when the service has a price.
type Appointment struct {
	ID           string            `json:"id" gorm:"primaryKey"`
	UserID       string            `json:"user_id" gorm:"index;not null"`
	ServiceName  string            `json:"service_name"`
	Notes        string            `json:"notes,omitempty"`
	Price        float64           `json:"price"`
	StartsAt     time.Time         `json:"starts_at" gorm:"index"`
	Status       AppointmentStatus `json:"status" gorm:"index"`
	PaymentID    string            `json:"payment_id,omitempty"`
	ReminderSent bool              `json:"-"`
	LateNotified bool              `json:"-"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
