package webpush

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	wp "github.com/SherClockHolmes/webpush-go"

	"bookngo-backend/pkg/push"
)

// Sender delivers Web Push notifications to browser subscriptions. The
// channel address is the JSON-encoded PushSubscription captured client-side.
type Sender struct {
	vapidPublicKey  string
	vapidPrivateKey string
	subscriber      string
}

func NewSender(vapidPublicKey, vapidPrivateKey, subscriber string) *Sender {
	return &Sender{
		vapidPublicKey:  vapidPublicKey,
		vapidPrivateKey: vapidPrivateKey,
		subscriber:      subscriber,
	}
}

type payload struct {
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	ActionURL string            `json:"action_url,omitempty"`
	Silent    bool              `json:"silent,omitempty"`
}

func (s *Sender) Send(ctx context.Context, address string, msg push.Message) error {
	// Credentials are checked per call: their absence disables web push only,
	// not the process.
	if s.vapidPublicKey == "" || s.vapidPrivateKey == "" {
		return fmt.Errorf("vapid keys not configured: %w", push.ErrTransient)
	}

	var sub wp.Subscription
	if err := json.Unmarshal([]byte(address), &sub); err != nil {
		return fmt.Errorf("malformed web push subscription: %w", push.ErrPermanent)
	}

	body, err := json.Marshal(payload{
		Title:     msg.Title,
		Body:      msg.Body,
		Data:      msg.Data,
		ActionURL: msg.ActionURL,
		Silent:    !msg.Sound,
	})
	if err != nil {
		return fmt.Errorf("encode web push payload: %w", err)
	}

	resp, err := wp.SendNotificationWithContext(ctx, body, &sub, &wp.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.vapidPublicKey,
		VAPIDPrivateKey: s.vapidPrivateKey,
		TTL:             60,
	})
	if err != nil {
		return fmt.Errorf("web push send failed: %v: %w", err, push.ErrTransient)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// The push service dropped the subscription.
		return fmt.Errorf("subscription gone (status %d): %w", resp.StatusCode, push.ErrPermanent)
	default:
		return fmt.Errorf("push service returned status %d: %w", resp.StatusCode, push.ErrTransient)
	}
}
