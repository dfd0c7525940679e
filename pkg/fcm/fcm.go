package fcm

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"bookngo-backend/pkg/push"
)

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient *messaging.Client
}

// NewClient creates a new FCM client using the provided credentials file
func NewClient(credentialsFile string) (*Client, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Println("[FCM] Client initialized successfully")
	return &Client{
		messagingClient: messagingClient,
	}, nil
}

// TokenSender returns the push.Sender for plain FCM device tokens.
func (c *Client) TokenSender() push.Sender {
	return tokenSender{client: c}
}

// NativeSender returns the push.Sender for native (APNs/Android) push
// subscriptions routed through FCM.
func (c *Client) NativeSender() push.Sender {
	return nativeSender{client: c}
}

type tokenSender struct {
	client *Client
}

func (s tokenSender) Send(ctx context.Context, address string, msg push.Message) error {
	message := &messaging.Message{
		Token: address,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: msg.Title,
				Body:  msg.Body,
				Icon:  "/icon-192.svg",
			},
		},
	}
	return s.client.send(ctx, message)
}

type nativeSender struct {
	client *Client
}

func (s nativeSender) Send(ctx context.Context, address string, msg push.Message) error {
	sound := ""
	if msg.Sound {
		sound = "default"
	}
	message := &messaging.Message{
		Token: address,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:                 sound,
				DefaultSound:          msg.Sound,
				DefaultVibrateTimings: msg.Vibration,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: sound,
				},
			},
		},
	}
	return s.client.send(ctx, message)
}

func (c *Client) send(ctx context.Context, message *messaging.Message) error {
	if c == nil || c.messagingClient == nil {
		return fmt.Errorf("fcm client not configured: %w", push.ErrTransient)
	}

	response, err := c.messagingClient.Send(ctx, message)
	if err != nil {
		return classify(err)
	}

	log.Printf("[FCM] Message sent successfully: %s", response)
	return nil
}

// classify maps Firebase errors onto the uniform channel contract. A token
// the provider no longer recognizes is permanent; everything else is treated
// as retryable.
func classify(err error) error {
	switch {
	case messaging.IsUnregistered(err):
		return fmt.Errorf("fcm token unregistered: %w", push.ErrPermanent)
	case messaging.IsSenderIDMismatch(err):
		return fmt.Errorf("fcm sender mismatch: %w", push.ErrPermanent)
	case messaging.IsInvalidArgument(err):
		return fmt.Errorf("fcm rejected message: %v: %w", err, push.ErrPermanent)
	default:
		return fmt.Errorf("fcm send failed: %v: %w", err, push.ErrTransient)
	}
}
