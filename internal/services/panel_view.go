package services

import (
	"context"
	"sync"
	"time"

	"github.com/localmandi/storefront/internal/bus"
	domain "github.com/localmandi/storefront/internal/domain"
)

const defaultPanelPoll = 200 * time.Millisecond

// PanelViewDeps wires the cart panel's inputs.
type PanelViewDeps struct {
	Store        CartStore
	Bus          *bus.Bus
	PollInterval time.Duration
	Logger       func(context.Context, string, map[string]any)
}

// PanelView maintains the full line-item list and total the cart panel
// renders. Snapshot events apply directly; bare signals trigger a re-read.
// A fast poll catches changes that produced no notification, comparing only
// the list length against the store.
type PanelView struct {
	store  CartStore
	bus    *bus.Bus
	logger func(context.Context, string, map[string]any)

	mu    sync.RWMutex
	items []domain.LineItem
	total float64

	subs   []bus.Subscription
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// NewPanelView constructs the panel view, seeds it from the store, and starts
// the poll loop.
func NewPanelView(deps PanelViewDeps) (*PanelView, error) {
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
	poll := deps.PollInterval
	if poll <= 0 {
		poll = defaultPanelPoll
	}

	v := &PanelView{
		store:  deps.Store,
		bus:    deps.Bus,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	v.subs = append(v.subs,
		deps.Bus.Subscribe(bus.TopicCartUpdatedWithData, func(payload any) {
			if snapshot, ok := payload.(domain.CartSnapshot); ok {
				v.apply(snapshot)
				return
			}
			v.refresh(context.Background())
		}),
		deps.Bus.Subscribe(bus.TopicCartUpdated, func(payload any) {
			v.refresh(context.Background())
		}),
	)

	v.refresh(context.Background())
	go v.run(poll)
	return v, nil
}

// Items returns a copy of the rendered line-item list.
func (v *PanelView) Items() []domain.LineItem {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]domain.LineItem, len(v.items))
	copy(out, v.items)
	return out
}

// Total returns the rendered cart total.
func (v *PanelView) Total() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.total
}

// Snapshot returns the rendered list and total together.
func (v *PanelView) Snapshot() domain.CartSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return domain.Snapshot(v.items)
}

// Close stops the poll loop and detaches from the bus.
func (v *PanelView) Close() {
	v.once.Do(func() {
		close(v.stopCh)
		<-v.doneCh
		for _, sub := range v.subs {
			v.bus.Unsubscribe(sub)
		}
	})
}

func (v *PanelView) run(poll time.Duration) {
	defer close(v.doneCh)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-v.stopCh:
			return
		case <-ticker.C:
			v.pollOnce(context.Background())
		}
	}
}

// pollOnce reconciles against the store only when the list length differs.
// Same-length changes are left to the bus signals.
func (v *PanelView) pollOnce(ctx context.Context) {
	snapshot, err := v.store.Snapshot(ctx)
	if err != nil {
		v.logger(ctx, "panel.poll_failed", map[string]any{"error": err.Error()})
		return
	}

	v.mu.RLock()
	mismatch := len(snapshot.Items) != len(v.items)
	v.mu.RUnlock()

	if mismatch {
		v.apply(snapshot)
	}
}

func (v *PanelView) refresh(ctx context.Context) {
	snapshot, err := v.store.Snapshot(ctx)
	if err != nil {
		v.logger(ctx, "panel.refresh_failed", map[string]any{"error": err.Error()})
		return
	}
	v.apply(snapshot)
}

func (v *PanelView) apply(snapshot domain.CartSnapshot) {
	v.mu.Lock()
	v.items = snapshot.Items
	v.total = snapshot.Total
	v.mu.Unlock()
}
