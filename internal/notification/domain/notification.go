package domain

import "time"

type NotificationType string

// The recognized notification types. The set is closed: the dispatcher has a
// rendering rule for each of these and drops anything else.
const (
	TypeAppointmentReminder NotificationType = "appointment_reminder"
	TypeAppointmentCheckin  NotificationType = "appointment_checkin"
	TypeAppointmentLate     NotificationType = "appointment_late"
	TypeLoyaltyProgress     NotificationType = "loyalty_progress"
	TypeLoyaltyLevelUp      NotificationType = "loyalty_levelup"
	TypeLoyaltyExpiring     NotificationType = "loyalty_expiring"
	TypePaymentPending      NotificationType = "payment_pending"
	TypePaymentProof        NotificationType = "payment_proof"
	TypeReviewRequest       NotificationType = "review_request"
	TypeInactivity          NotificationType = "inactivity"
	TypeSuggestion          NotificationType = "suggestion"
)

// AllTypes lists every recognized type, used to build default preferences.
func AllTypes() []NotificationType {
	return []NotificationType{
		TypeAppointmentReminder,
		TypeAppointmentCheckin,
		TypeAppointmentLate,
		TypeLoyaltyProgress,
		TypeLoyaltyLevelUp,
		TypeLoyaltyExpiring,
		TypePaymentPending,
		TypePaymentProof,
		TypeReviewRequest,
		TypeInactivity,
		TypeSuggestion,
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// SmartNotification is one rendered notification for one user. The dispatcher
// writes it for bookkeeping; only the recipient's client flips Read.
type SmartNotification struct {
	ID        string            `json:"id" gorm:"primaryKey"`
	UserID    string            `json:"user_id" gorm:"index;not null"`
	Type      NotificationType  `json:"type" gorm:"index"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Priority  Priority          `json:"priority"`
	ActionURL string            `json:"action_url,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty" gorm:"serializer:json"`
	Read      bool              `json:"read"`
	Timestamp time.Time         `json:"timestamp"`
}

// Event is the domain event handed to the dispatcher. UserIDs carries a
// single recipient in the common case and a fan-out list for admin
// broadcasts.
type Event struct {
	Type      NotificationType
	UserIDs   []string
	ActionURL string
	Data      map[string]string
}
