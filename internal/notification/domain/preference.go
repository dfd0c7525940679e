package domain

import "time"

// NotificationPreference is one row per user. Created with defaults on first
// use, reset to defaults instead of deleted.
type NotificationPreference struct {
	UserID       string                    `json:"user_id" gorm:"primaryKey"`
	EnabledTypes map[NotificationType]bool `json:"enabled_types" gorm:"serializer:json"`
	// Quiet hours as local "HH:MM" strings. The window may wrap midnight
	// (start > end). Empty strings disable the window.
	DoNotDisturbStart string    `json:"do_not_disturb_start"`
	DoNotDisturbEnd   string    `json:"do_not_disturb_end"`
	SoundEnabled      bool      `json:"sound_enabled"`
	VibrationEnabled  bool      `json:"vibration_enabled"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DefaultPreference returns the system default set: everything enabled, no
// quiet hours.
func DefaultPreference(userID string) *NotificationPreference {
	enabled := make(map[NotificationType]bool, len(AllTypes()))
	for _, t := range AllTypes() {
		enabled[t] = true
	}
	return &NotificationPreference{
		UserID:           userID,
		EnabledTypes:     enabled,
		SoundEnabled:     true,
		VibrationEnabled: true,
		UpdatedAt:        time.Now(),
	}
}
