package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookngo-backend/internal/notification/domain"
	"bookngo-backend/internal/notification/repository"
	"bookngo-backend/pkg/push"
)

// DispatchResult summarizes one dispatch call. attempted counts channel
// sends, delivered the successful ones; suppressed counts recipients filtered
// out before any send (preferences, quiet hours, no channels).
type DispatchResult struct {
	Attempted  int              `json:"attempted"`
	Delivered  int              `json:"delivered"`
	Suppressed int              `json:"suppressed"`
	Failures   []ChannelFailure `json:"failures,omitempty"`
}

// ChannelFailure reports one failed channel send. Failures are collected,
// never raised to the caller: dispatch is best-effort.
type ChannelFailure struct {
	UserID    string             `json:"user_id"`
	Kind      domain.ChannelKind `json:"kind"`
	Permanent bool               `json:"permanent"`
	Reason    string             `json:"reason"`
}

// Dispatcher fans one domain event out to its recipients' channels.
type Dispatcher struct {
	resolver    *PreferenceResolver
	registry    repository.ChannelRegistry
	store       repository.NotificationRepository
	senders     map[domain.ChannelKind]push.Sender
	sendTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewDispatcher(
	resolver *PreferenceResolver,
	registry repository.ChannelRegistry,
	store repository.NotificationRepository,
	senders map[domain.ChannelKind]push.Sender,
	sendTimeout time.Duration,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		resolver:    resolver,
		registry:    registry,
		store:       store,
		senders:     senders,
		sendTimeout: sendTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Dispatch renders the event and delivers it to every eligible channel of
// every recipient. Recipients and channels are independent delivery surfaces
// with no ordering requirement, so both fan-outs run in parallel. A failure
// on one channel never aborts another.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.Event) DispatchResult {
	rendered, err := render(event)
	if err != nil {
		// Fail closed: no rendering rule, nothing is sent.
		d.logger.Error("dispatch dropped event", zap.String("type", string(event.Type)), zap.Error(err))
		return DispatchResult{}
	}

	var (
		mu     sync.Mutex
		result DispatchResult
		wg     sync.WaitGroup
	)

	for _, userID := range event.UserIDs {
		if userID == "" {
			continue
		}
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			d.dispatchToUser(ctx, event, rendered, userID, &mu, &result)
		}(userID)
	}
	wg.Wait()

	d.logger.Info("dispatch finished",
		zap.String("type", string(event.Type)),
		zap.Int("attempted", result.Attempted),
		zap.Int("delivered", result.Delivered),
		zap.Int("suppressed", result.Suppressed),
		zap.Int("failures", len(result.Failures)))
	return result
}

func (d *Dispatcher) dispatchToUser(ctx context.Context, event domain.Event, rendered rendering, userID string, mu *sync.Mutex, result *DispatchResult) {
	pref := d.resolver.Preference(ctx, userID)
	now := d.now()

	if !Allowed(pref, event.Type, rendered.Priority, now) {
		d.logger.Debug("dispatch suppressed by preferences",
			zap.String("user_id", userID), zap.String("type", string(event.Type)))
		mu.Lock()
		result.Suppressed++
		mu.Unlock()
		return
	}

	channels, err := d.registry.Resolve(ctx, userID)
	if err != nil {
		mu.Lock()
		result.Failures = append(result.Failures, ChannelFailure{
			UserID: userID,
			Reason: "channel resolution failed: " + err.Error(),
		})
		mu.Unlock()
		return
	}

	notification := &domain.SmartNotification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      event.Type,
		Title:     rendered.Title,
		Body:      rendered.Body,
		Priority:  rendered.Priority,
		ActionURL: event.ActionURL,
		Metadata:  event.Data,
		Timestamp: now,
	}
	// Bookkeeping is best-effort too; the client feed missing an entry must
	// not block push delivery.
	if err := d.store.Create(ctx, notification); err != nil {
		d.logger.Warn("failed to store notification",
			zap.String("user_id", userID), zap.Error(err))
	}

	if len(channels) == 0 {
		// Expected steady state for users who never granted push permission.
		d.logger.Debug("dispatch suppressed: no channels registered", zap.String("user_id", userID))
		mu.Lock()
		result.Suppressed++
		mu.Unlock()
		return
	}

	msg := push.Message{
		Title:     rendered.Title,
		Body:      rendered.Body,
		Data:      dataWithType(event),
		ActionURL: event.ActionURL,
		Sound:     pref.SoundEnabled,
		Vibration: pref.VibrationEnabled,
	}

	// De-dup key is the channel address: two kinds resolving to the same
	// physical device get at most one send.
	seen := make(map[string]bool, len(channels))
	var wg sync.WaitGroup
	for _, ch := range channels {
		if seen[ch.Address] {
			continue
		}
		seen[ch.Address] = true

		wg.Add(1)
		go func(ch domain.ChannelRegistration) {
			defer wg.Done()
			d.sendToChannel(ctx, ch, msg, mu, result)
		}(ch)
	}
	wg.Wait()
}

func (d *Dispatcher) sendToChannel(ctx context.Context, ch domain.ChannelRegistration, msg push.Message, mu *sync.Mutex, result *DispatchResult) {
	mu.Lock()
	result.Attempted++
	mu.Unlock()

	sender, ok := d.senders[ch.Kind]
	if !ok || sender == nil {
		mu.Lock()
		result.Failures = append(result.Failures, ChannelFailure{
			UserID: ch.UserID,
			Kind:   ch.Kind,
			Reason: "no sender configured for channel kind",
		})
		mu.Unlock()
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	err := sender.Send(sendCtx, ch.Address, msg)
	if err == nil {
		mu.Lock()
		result.Delivered++
		mu.Unlock()
		return
	}

	permanent := errors.Is(err, push.ErrPermanent)
	if permanent {
		// The provider declared the address dead; drop it so future
		// dispatches stop retrying a dead channel.
		if unregErr := d.registry.Unregister(context.WithoutCancel(ctx), ch.Address); unregErr != nil {
			d.logger.Warn("failed to unregister dead channel",
				zap.String("user_id", ch.UserID), zap.Error(unregErr))
		}
	}

	d.logger.Warn("channel send failed",
		zap.String("user_id", ch.UserID),
		zap.String("kind", string(ch.Kind)),
		zap.Bool("permanent", permanent),
		zap.Error(err))

	mu.Lock()
	result.Failures = append(result.Failures, ChannelFailure{
		UserID:    ch.UserID,
		Kind:      ch.Kind,
		Permanent: permanent,
		Reason:    err.Error(),
	})
	mu.Unlock()
}

func dataWithType(event domain.Event) map[string]string {
	data := make(map[string]string, len(event.Data)+1)
	for k, v := range event.Data {
		data[k] = v
	}
	data["type"] = string(event.Type)
	return data
}
