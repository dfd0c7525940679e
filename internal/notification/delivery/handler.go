package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookngo-backend/internal/notification/domain"
	"bookngo-backend/internal/notification/repository"
	"bookngo-backend/internal/notification/usecase"
)

// UserDirectory lists recipients for broadcast events.
type UserDirectory interface {
	ListIDs() ([]string, error)
}

// NotificationHandler handles channel, preference and notification requests
type NotificationHandler struct {
	registry   repository.ChannelRegistry
	prefs      repository.PreferenceRepository
	store      repository.NotificationRepository
	resolver   *usecase.PreferenceResolver
	dispatcher *usecase.Dispatcher
	users      UserDirectory
}

func NewNotificationHandler(
	registry repository.ChannelRegistry,
	prefs repository.PreferenceRepository,
	store repository.NotificationRepository,
	resolver *usecase.PreferenceResolver,
	dispatcher *usecase.Dispatcher,
	users UserDirectory,
) *NotificationHandler {
	return &NotificationHandler{
		registry:   registry,
		prefs:      prefs,
		store:      store,
		resolver:   resolver,
		dispatcher: dispatcher,
		users:      users,
	}
}

// RegisterChannelRequest registers one delivery surface for the caller
type RegisterChannelRequest struct {
	Kind    domain.ChannelKind `json:"kind" binding:"required"`
	Address string             `json:"address" binding:"required"`
}

// RegisterChannel registers a push channel for the authenticated user
// POST /api/channels
func (h *NotificationHandler) RegisterChannel(c *gin.Context) {
	userID := c.GetString("userID")

	var req RegisterChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Kind {
	case domain.ChannelKindFCMToken, domain.ChannelKindWebPush, domain.ChannelKindNativePush:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown channel kind"})
		return
	}

	if err := h.registry.Register(c.Request.Context(), userID, req.Kind, req.Address); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "channel registered"})
}

// UnregisterChannel removes a channel address
// DELETE /api/channels/:address
func (h *NotificationHandler) UnregisterChannel(c *gin.Context) {
	if err := h.registry.Unregister(c.Request.Context(), c.Param("address")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "channel unregistered"})
}

// GetPreferences returns the caller's preferences (defaults if never saved)
// GET /api/preferences
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	userID := c.GetString("userID")
	c.JSON(http.StatusOK, h.resolver.Preference(c.Request.Context(), userID))
}

// UpdatePreferencesRequest is the full preference document
type UpdatePreferencesRequest struct {
	EnabledTypes      map[domain.NotificationType]bool `json:"enabled_types"`
	DoNotDisturbStart string                           `json:"do_not_disturb_start"`
	DoNotDisturbEnd   string                           `json:"do_not_disturb_end"`
	SoundEnabled      bool                             `json:"sound_enabled"`
	VibrationEnabled  bool                             `json:"vibration_enabled"`
}

// UpdatePreferences saves the caller's preferences
// PUT /api/preferences
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	userID := c.GetString("userID")

	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pref := &domain.NotificationPreference{
		UserID:            userID,
		EnabledTypes:      req.EnabledTypes,
		DoNotDisturbStart: req.DoNotDisturbStart,
		DoNotDisturbEnd:   req.DoNotDisturbEnd,
		SoundEnabled:      req.SoundEnabled,
		VibrationEnabled:  req.VibrationEnabled,
	}
	if err := h.prefs.Save(c.Request.Context(), pref); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pref)
}

// ResetPreferences restores the system defaults
// POST /api/preferences/reset
func (h *NotificationHandler) ResetPreferences(c *gin.Context) {
	userID := c.GetString("userID")
	pref, err := h.prefs.Reset(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pref)
}

// ListNotifications returns the caller's notification feed
// GET /api/notifications?limit=50&offset=0
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID := c.GetString("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifications, err := h.store.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkRead marks one of the caller's notifications as read
// PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.store.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}

// BroadcastRequest fans one event out to every user
type BroadcastRequest struct {
	Type      domain.NotificationType `json:"type" binding:"required"`
	ActionURL string                  `json:"action_url"`
	Data      map[string]string       `json:"data"`
}

// Broadcast dispatches an admin event to all users. Best-effort: per-user
// failures are reported in the result, never as an HTTP error.
// POST /api/admin/broadcast
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userIDs, err := h.users.ListIDs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := h.dispatcher.Dispatch(c.Request.Context(), domain.Event{
		Type:      req.Type,
		UserIDs:   userIDs,
		ActionURL: req.ActionURL,
		Data:      req.Data,
	})

	c.JSON(http.StatusOK, result)
}
