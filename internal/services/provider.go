package services

import (
	"context"
	"time"

	"github.com/localmandi/storefront/internal/bus"
	"github.com/localmandi/storefront/internal/platform/slot"
)

// CartSourceDeps carries everything needed to pick a cart source at session
// start. API is optional: without it, or without an authenticated session,
// the local slot-backed cart is used.
type CartSourceDeps struct {
	Slot             slot.DurableSlot
	Bus              *bus.Bus
	API              cartAPI
	Authenticated    bool
	RebroadcastDelay time.Duration
	Clock            func() time.Time
	Logger           func(context.Context, string, map[string]any)
}

// SelectCartStore chooses the cart source for this session. The choice is
// made once: observers hold the returned CartStore and never re-check
// authentication.
func SelectCartStore(ctx context.Context, deps CartSourceDeps) (CartStore, error) {
	if deps.Authenticated && deps.API != nil {
		return NewRemoteCartStore(ctx, RemoteCartDeps{
			API:              deps.API,
			Bus:              deps.Bus,
			RebroadcastDelay: deps.RebroadcastDelay,
			Logger:           deps.Logger,
		})
	}
	return NewLocalCartStore(LocalCartDeps{
		Slot:             deps.Slot,
		Bus:              deps.Bus,
		RebroadcastDelay: deps.RebroadcastDelay,
		Clock:            deps.Clock,
		Logger:           deps.Logger,
	})
}
