package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"bookngo-backend/internal/notification/domain"
	"bookngo-backend/internal/notification/repository"
)

// PreferenceResolver decides, per user and notification type, whether
// delivery is allowed right now.
type PreferenceResolver struct {
	repo   repository.PreferenceRepository
	logger *zap.Logger
}

func NewPreferenceResolver(repo repository.PreferenceRepository, logger *zap.Logger) *PreferenceResolver {
	return &PreferenceResolver{
		repo:   repo,
		logger: logger,
	}
}

// Preference returns the user's stored preference, falling back to the
// system default set when none exists or the lookup fails.
func (r *PreferenceResolver) Preference(ctx context.Context, userID string) *domain.NotificationPreference {
	pref, err := r.repo.Get(ctx, userID)
	if err != nil {
		r.logger.Warn("preference lookup failed, using defaults",
			zap.String("user_id", userID), zap.Error(err))
		return domain.DefaultPreference(userID)
	}
	if pref == nil {
		return domain.DefaultPreference(userID)
	}
	return pref
}

// IsAllowed is the full check: type gate plus quiet hours.
func (r *PreferenceResolver) IsAllowed(ctx context.Context, userID string, typ domain.NotificationType, priority domain.Priority, now time.Time) bool {
	return Allowed(r.Preference(ctx, userID), typ, priority, now)
}

// Allowed applies the gating rules to an already-resolved preference.
// Type-disable is an explicit opt-out and always wins. Urgent priority
// bypasses quiet hours only: quiet hours suppress noise, not safety-critical
// alerts.
func Allowed(pref *domain.NotificationPreference, typ domain.NotificationType, priority domain.Priority, now time.Time) bool {
	if enabled, ok := pref.EnabledTypes[typ]; ok && !enabled {
		return false
	}
	if priority == domain.PriorityUrgent {
		return true
	}
	return !InQuietWindow(pref.DoNotDisturbStart, pref.DoNotDisturbEnd, now)
}

// InQuietWindow reports whether now falls within [start, end) in the user's
// local time. A window with start > end wraps midnight; membership there is
// now >= start OR now < end. Unparseable or identical bounds disable the
// window.
func InQuietWindow(start, end string, now time.Time) bool {
	startMin, ok := parseClock(start)
	if !ok {
		return false
	}
	endMin, ok := parseClock(end)
	if !ok {
		return false
	}
	if startMin == endMin {
		return false
	}

	nowMin := now.Hour()*60 + now.Minute()
	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin
	}
	return nowMin >= startMin || nowMin < endMin
}

// parseClock parses "HH:MM" into minutes past midnight.
func parseClock(value string) (int, bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
