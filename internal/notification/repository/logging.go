package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bookngo-backend/internal/notification/domain"
)

// loggingChannelRegistry instruments registry calls. Pass-through decorator;
// log emission is isolated so it can never fail the wrapped operation.
type loggingChannelRegistry struct {
	next   ChannelRegistry
	logger *zap.Logger
}

func NewLoggingChannelRegistry(next ChannelRegistry, logger *zap.Logger) ChannelRegistry {
	return &loggingChannelRegistry{next: next, logger: logger}
}

func (r *loggingChannelRegistry) log(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

func (r *loggingChannelRegistry) Register(ctx context.Context, userID string, kind domain.ChannelKind, address string) error {
	start := time.Now()
	err := r.next.Register(ctx, userID, kind, address)
	r.log(func() {
		r.logger.Info("channel registry: register",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
	})
	return err
}

func (r *loggingChannelRegistry) Resolve(ctx context.Context, userID string) ([]domain.ChannelRegistration, error) {
	start := time.Now()
	channels, err := r.next.Resolve(ctx, userID)
	r.log(func() {
		r.logger.Debug("channel registry: resolve",
			zap.String("user_id", userID),
			zap.Int("count", len(channels)),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
	})
	return channels, err
}

func (r *loggingChannelRegistry) Unregister(ctx context.Context, address string) error {
	start := time.Now()
	err := r.next.Unregister(ctx, address)
	r.log(func() {
		r.logger.Info("channel registry: unregister",
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
	})
	return err
}
