package usecase

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"bookngo-backend/internal/notification/domain"
)

func clock(hour, minute int) time.Time {
	return time.Date(2026, 8, 29, hour, minute, 0, 0, time.Local)
}

func TestInQuietWindow(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		now        time.Time
		want       bool
	}{
		{"wrapped window, late evening", "22:00", "08:00", clock(23, 30), true},
		{"wrapped window, early morning", "22:00", "08:00", clock(7, 59), true},
		{"wrapped window, after end", "22:00", "08:00", clock(9, 0), false},
		{"wrapped window, end is exclusive", "22:00", "08:00", clock(8, 0), false},
		{"wrapped window, start is inclusive", "22:00", "08:00", clock(22, 0), true},
		{"plain window, inside", "12:00", "14:00", clock(13, 0), true},
		{"plain window, outside", "12:00", "14:00", clock(15, 0), false},
		{"identical bounds disable the window", "10:00", "10:00", clock(10, 0), false},
		{"empty strings disable the window", "", "", clock(3, 0), false},
		{"unparseable start disables the window", "25:99", "08:00", clock(3, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InQuietWindow(tt.start, tt.end, tt.now); got != tt.want {
				t.Errorf("InQuietWindow(%q, %q, %v) = %v, want %v", tt.start, tt.end, tt.now, got, tt.want)
			}
		})
	}
}

func TestAllowed(t *testing.T) {
	pref := domain.DefaultPreference("user-1")
	pref.DoNotDisturbStart = "22:00"
	pref.DoNotDisturbEnd = "08:00"

	t.Run("normal priority suppressed during quiet hours", func(t *testing.T) {
		if Allowed(pref, domain.TypePaymentProof, domain.PriorityNormal, clock(23, 30)) {
			t.Error("expected suppression at 23:30")
		}
	})

	t.Run("normal priority allowed outside quiet hours", func(t *testing.T) {
		if !Allowed(pref, domain.TypePaymentProof, domain.PriorityNormal, clock(9, 0)) {
			t.Error("expected delivery at 09:00")
		}
	})

	t.Run("urgent bypasses quiet hours", func(t *testing.T) {
		if !Allowed(pref, domain.TypeAppointmentLate, domain.PriorityUrgent, clock(23, 30)) {
			t.Error("urgent must bypass quiet hours")
		}
	})

	t.Run("urgent never bypasses a disabled type", func(t *testing.T) {
		disabled := domain.DefaultPreference("user-1")
		disabled.EnabledTypes[domain.TypeAppointmentLate] = false
		if Allowed(disabled, domain.TypeAppointmentLate, domain.PriorityUrgent, clock(12, 0)) {
			t.Error("explicit type opt-out must always win")
		}
	})

	t.Run("type missing from the map stays enabled", func(t *testing.T) {
		sparse := &domain.NotificationPreference{
			UserID:       "user-1",
			EnabledTypes: map[domain.NotificationType]bool{},
		}
		if !Allowed(sparse, domain.TypeSuggestion, domain.PriorityLow, clock(12, 0)) {
			t.Error("unset type should default to enabled")
		}
	})
}

type fakePrefRepo struct {
	prefs map[string]*domain.NotificationPreference
	err   error
}

func (f *fakePrefRepo) Get(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prefs[userID], nil
}

func (f *fakePrefRepo) Save(ctx context.Context, pref *domain.NotificationPreference) error {
	if f.prefs == nil {
		f.prefs = make(map[string]*domain.NotificationPreference)
	}
	f.prefs[pref.UserID] = pref
	return nil
}

func (f *fakePrefRepo) Reset(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	pref := domain.DefaultPreference(userID)
	_ = f.Save(ctx, pref)
	return pref, nil
}

func TestPreferenceResolver_DefaultsWhenUnset(t *testing.T) {
	resolver := NewPreferenceResolver(&fakePrefRepo{}, zap.NewNop())

	if !resolver.IsAllowed(context.Background(), "new-user", domain.TypePaymentProof, domain.PriorityNormal, clock(12, 0)) {
		t.Error("a user without stored preferences gets the default set (all enabled)")
	}
}

func TestPreferenceResolver_UsesStoredPreference(t *testing.T) {
	stored := domain.DefaultPreference("user-1")
	stored.EnabledTypes[domain.TypeReviewRequest] = false
	resolver := NewPreferenceResolver(&fakePrefRepo{
		prefs: map[string]*domain.NotificationPreference{"user-1": stored},
	}, zap.NewNop())

	if resolver.IsAllowed(context.Background(), "user-1", domain.TypeReviewRequest, domain.PriorityNormal, clock(12, 0)) {
		t.Error("stored opt-out must be honored")
	}
}
