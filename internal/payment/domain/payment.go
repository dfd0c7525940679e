package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsTerminal reports whether a status accepts no further transition.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected || s == PaymentStatusCancelled
}

// Payment is the durable record for one gateway payment. The id is assigned
// by the gateway; payer fields are immutable after creation and only the
// reconciler mutates status.
type Payment struct {
	ID                  string        `json:"id" gorm:"primaryKey"`
	Status              PaymentStatus `json:"status" gorm:"index;not null"`
	Amount              float64       `json:"amount"`
	Description         string        `json:"description"`
	PayerEmail          string        `json:"payer_email"`
	PayerDocument       string        `json:"-"` // Never expose the document in JSON
	UserID              string        `json:"user_id" gorm:"index"`
	LinkedAppointmentID string        `json:"linked_appointment_id,omitempty" gorm:"index"`
	QRPayload           string        `json:"qr_payload,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	// LastUpdatedAt is the gateway's ordering key. Conflicting updates are
	// resolved against it, never against local arrival order.
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// UpdateSource identifies which of the two racing paths produced an update.
type UpdateSource string

const (
	SourcePush UpdateSource = "push" // inbound webhook
	SourcePoll UpdateSource = "poll" // client-driven polling
)

// StatusUpdate is a candidate transition handed to the reconciler.
type StatusUpdate struct {
	ID            string
	Status        PaymentStatus
	LastUpdatedAt time.Time
	Source        UpdateSource
}

// PaymentSettled is emitted exactly once per payment when it reaches a
// terminal status.
type PaymentSettled struct {
	ID                  string
	Status              PaymentStatus
	UserID              string
	Amount              float64
	LinkedAppointmentID string
}
