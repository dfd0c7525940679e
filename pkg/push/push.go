// Package push defines the uniform delivery contract every notification
// channel kind implements, so the dispatcher stays channel-agnostic.
package push

import (
	"context"
	"errors"
)

// ErrPermanent marks an address as dead (unregistered token, gone
// subscription). The channel registry removes the address on this error.
var ErrPermanent = errors.New("permanent channel failure")

// ErrTransient marks a retryable provider failure. The dispatcher records it
// and moves on; it never retries within a dispatch.
var ErrTransient = errors.New("transient channel failure")

// Message is the rendered payload handed to a channel sender.
type Message struct {
	Title     string
	Body      string
	Data      map[string]string
	ActionURL string
	Sound     bool
	Vibration bool
}

// Sender delivers one message to one address. Implementations must honor the
// context deadline and classify failures with ErrPermanent / ErrTransient.
type Sender interface {
	Send(ctx context.Context, address string, msg Message) error
}
