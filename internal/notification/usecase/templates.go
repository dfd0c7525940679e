package usecase

import (
	"errors"
	"fmt"

	"bookngo-backend/internal/notification/domain"
)

// ErrUnknownEventType means the event has no rendering rule. The dispatcher
// fails closed on it: dropped and logged, never sent with empty content.
var ErrUnknownEventType = errors.New("unknown notification event type")

type rendering struct {
	Title    string
	Body     string
	Priority domain.Priority
}

// render maps an event onto {title, body, priority}. The mapping is total
// over the recognized type set.
func render(event domain.Event) (rendering, error) {
	data := event.Data
	switch event.Type {
	case domain.TypeAppointmentReminder:
		return rendering{
			Title:    "Upcoming appointment",
			Body:     fmt.Sprintf("Your %s appointment starts at %s.", field(data, "service", "booked"), field(data, "time", "the scheduled time")),
			Priority: domain.PriorityHigh,
		}, nil
	case domain.TypeAppointmentCheckin:
		return rendering{
			Title:    "Checked in",
			Body:     fmt.Sprintf("You're checked in for %s. We'll call you shortly.", field(data, "service", "your appointment")),
			Priority: domain.PriorityNormal,
		}, nil
	case domain.TypeAppointmentLate:
		return rendering{
			Title:    "Running late?",
			Body:     fmt.Sprintf("Your %s appointment has started. Let us know if you're on the way.", field(data, "service", "booked")),
			Priority: domain.PriorityUrgent,
		}, nil
	case domain.TypeLoyaltyProgress:
		return rendering{
			Title:    "Loyalty progress",
			Body:     fmt.Sprintf("You're %s points away from your next reward.", field(data, "points_remaining", "a few")),
			Priority: domain.PriorityLow,
		}, nil
	case domain.TypeLoyaltyLevelUp:
		return rendering{
			Title:    "Level up!",
			Body:     fmt.Sprintf("You reached the %s tier. New perks are waiting.", field(data, "tier", "next")),
			Priority: domain.PriorityNormal,
		}, nil
	case domain.TypeLoyaltyExpiring:
		return rendering{
			Title:    "Points expiring soon",
			Body:     fmt.Sprintf("%s loyalty points expire on %s.", field(data, "points", "Your"), field(data, "expires_at", "soon")),
			Priority: domain.PriorityHigh,
		}, nil
	case domain.TypePaymentPending:
		return rendering{
			Title:    "Payment pending",
			Body:     fmt.Sprintf("Your payment of %s is still pending. Complete it to confirm your booking.", field(data, "amount", "your order")),
			Priority: domain.PriorityHigh,
		}, nil
	case domain.TypePaymentProof:
		return rendering{
			Title:    "Payment confirmed",
			Body:     fmt.Sprintf("We received your payment of %s. Your booking is confirmed.", field(data, "amount", "your order")),
			Priority: domain.PriorityHigh,
		}, nil
	case domain.TypeReviewRequest:
		return rendering{
			Title:    "How was it?",
			Body:     fmt.Sprintf("Tell us about your %s experience.", field(data, "service", "recent")),
			Priority: domain.PriorityLow,
		}, nil
	case domain.TypeInactivity:
		return rendering{
			Title:    "We miss you",
			Body:     "It's been a while. Book your next appointment in a couple of taps.",
			Priority: domain.PriorityLow,
		}, nil
	case domain.TypeSuggestion:
		return rendering{
			Title:    "Just for you",
			Body:     field(data, "message", "We have a suggestion you might like."),
			Priority: domain.PriorityLow,
		}, nil
	default:
		return rendering{}, fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
	}
}

func field(data map[string]string, key, fallback string) string {
	if data != nil {
		if v, ok := data[key]; ok && v != "" {
			return v
		}
	}
	return fallback
}
