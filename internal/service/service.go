package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/model"
)

type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// base carries what every service shares: cached views, a clock and a logger.
type base struct {
	views cache.Views
	now   Clock
	log   zerolog.Logger
}

func newBase(views cache.Views, log zerolog.Logger) base {
	if views == nil {
		views = cache.Noop{}
	}
	return base{views: views, now: utcNow, log: log}
}

// invalidate drops cached views. The store stays the source of truth, so failures are logged
// and the action still succeeds.
func (b base) invalidate(ctx context.Context, keys ...string) {
	if err := b.views.Invalidate(ctx, keys...); err != nil {
		b.log.Warn().Err(err).Strs("keys", keys).Msg("invalidate cached views")
	}
}

// cachedView serves key from the view cache, falling back to load and storing its result.
func cachedView[T any](ctx context.Context, b base, key string, load func() (T, error)) (T, error) {
	var view T
	if err := b.views.Get(ctx, key, &view); err == nil {
		return view, nil
	}
	view, err := load()
	if err != nil {
		return view, err
	}
	if err := b.views.Set(ctx, key, view); err != nil {
		b.log.Warn().Err(err).Str("key", key).Msg("store cached view")
	}
	return view, nil
}

func requireMutate(p model.Principal) error {
	if !p.CanMutate() {
		return ErrPermissionDenied
	}
	return nil
}
