package domain

import "time"

type ChannelKind string

const (
	ChannelKindFCMToken   ChannelKind = "fcm-token"
	ChannelKindWebPush    ChannelKind = "web-push-subscription"
	ChannelKindNativePush ChannelKind = "native-push-subscription"
)

// ChannelRegistration indexes one addressable delivery surface for a user.
// Multiple registrations per user are expected (multi-device); the registry
// only indexes addresses, it does not own device identity.
type ChannelRegistration struct {
	ID     string      `json:"id" gorm:"primaryKey"`
	UserID string      `json:"user_id" gorm:"index;not null"`
	Kind   ChannelKind `json:"kind" gorm:"not null"`
	// Address is the opaque token / subscription. Unique: re-registering the
	// same address updates the row instead of duplicating it.
	Address      string    `json:"-" gorm:"uniqueIndex;not null"`
	RegisteredAt time.Time `json:"registered_at"`
}
