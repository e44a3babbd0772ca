package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/localmandi/storefront/internal/bus"
	domain "github.com/localmandi/storefront/internal/domain"
)

var errViewStoreRequired = errors.New("view: cart store is required")

const defaultBadgeTick = time.Second

// BadgeViewDeps wires the badge counter's inputs.
type BadgeViewDeps struct {
	Store        CartStore
	Bus          *bus.Bus
	TickInterval time.Duration
	Logger       func(context.Context, string, map[string]any)
}

// BadgeView maintains the item counter shown on the cart badge: the summed
// quantity across all line items. It updates from bus signals and, as a
// fallback for missed notifications, from a periodic re-read of the store.
type BadgeView struct {
	store  CartStore
	bus    *bus.Bus
	logger func(context.Context, string, map[string]any)

	mu    sync.RWMutex
	count int

	subs   []bus.Subscription
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// NewBadgeView constructs the badge counter, seeds it from the store, and
// starts the fallback tick.
func NewBadgeView(deps BadgeViewDeps) (*BadgeView, error) {
	if deps.Store == nil {
		return nil, errViewStoreRequired
	}
	if deps.Bus == nil {
		return nil, errCartBusRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	tick := deps.TickInterval
	if tick <= 0 {
		tick = defaultBadgeTick
	}

	v := &BadgeView{
		store:  deps.Store,
		bus:    deps.Bus,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	v.subs = append(v.subs,
		deps.Bus.Subscribe(bus.TopicCartUpdatedWithData, func(payload any) {
			if snapshot, ok := payload.(domain.CartSnapshot); ok {
				v.set(domain.TotalQuantity(snapshot.Items))
				return
			}
			v.refresh(context.Background())
		}),
		deps.Bus.Subscribe(bus.TopicCartUpdated, func(payload any) {
			v.refresh(context.Background())
		}),
	)

	v.refresh(context.Background())
	go v.run(tick)
	return v, nil
}

// Count returns the current badge value.
func (v *BadgeView) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.count
}

// Close stops the fallback tick and detaches from the bus.
func (v *BadgeView) Close() {
	v.once.Do(func() {
		close(v.stopCh)
		<-v.doneCh
		for _, sub := range v.subs {
			v.bus.Unsubscribe(sub)
		}
	})
}

func (v *BadgeView) run(tick time.Duration) {
	defer close(v.doneCh)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-v.stopCh:
			return
		case <-ticker.C:
			v.refresh(context.Background())
		}
	}
}

func (v *BadgeView) refresh(ctx context.Context) {
	snapshot, err := v.store.Snapshot(ctx)
	if err != nil {
		v.logger(ctx, "badge.refresh_failed", map[string]any{"error": err.Error()})
		return
	}
	v.set(domain.TotalQuantity(snapshot.Items))
}

func (v *BadgeView) set(count int) {
	v.mu.Lock()
	v.count = count
	v.mu.Unlock()
}
