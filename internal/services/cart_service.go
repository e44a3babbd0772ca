package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/localmandi/storefront/internal/bus"
	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/platform/slot"
)

var (
	errCartSlotRequired = errors.New("cart: durable slot is required")
	errCartBusRequired  = errors.New("cart: event bus is required")
)

const defaultRebroadcastDelay = 50 * time.Millisecond

// LocalCartDeps wires the durable slot and event bus for the guest cart.
type LocalCartDeps struct {
	Slot             slot.DurableSlot
	Bus              *bus.Bus
	RebroadcastDelay time.Duration
	Clock            func() time.Time
	Logger           func(context.Context, string, map[string]any)
}

type localCartStore struct {
	slot        slot.DurableSlot
	bus         *bus.Bus
	rebroadcast time.Duration
	now         func() time.Time
	logger      func(context.Context, string, map[string]any)

	mu    sync.Mutex
	items []domain.LineItem
}

var _ CartStore = (*localCartStore)(nil)

// NewLocalCartStore constructs the slot-backed guest cart. The durable slot
// is hydrated immediately; malformed or missing contents start an empty cart.
func NewLocalCartStore(deps LocalCartDeps) (CartStore, error) {
	if deps.Slot == nil {
		return nil, errCartSlotRequired
	}
	if deps.Bus == nil {
		return nil, errCartBusRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	delay := deps.RebroadcastDelay
	if delay <= 0 {
		delay = defaultRebroadcastDelay
	}

	s := &localCartStore{
		slot:        deps.Slot,
		bus:         deps.Bus,
		rebroadcast: delay,
		now:         clock,
		logger:      logger,
	}
	s.items = s.hydrate(context.Background())
	return s, nil
}

// hydrate reads the slot and decodes its entries tolerantly. Unreadable or
// malformed contents start an empty cart and log a warning.
func (s *localCartStore) hydrate(ctx context.Context) []domain.LineItem {
	data, err := s.slot.Read()
	if err != nil {
		s.logger(ctx, "cart.hydrate_failed", map[string]any{"error": err.Error()})
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger(ctx, "cart.hydrate_malformed", map[string]any{"error": err.Error()})
		return nil
	}

	items := make([]domain.LineItem, 0, len(raw))
	for _, entry := range raw {
		item, err := domain.NormalizeStored(entry)
		if err != nil {
			s.logger(ctx, "cart.hydrate_dropped_entry", map[string]any{"entry": entry})
			continue
		}
		items = append(items, item)
	}
	return items
}

func (s *localCartStore) AddItem(ctx context.Context, product domain.ProductInput, qty int) (domain.CartSnapshot, error) {
	item, err := domain.NormalizeProduct(product, qty)
	if err != nil {
		s.logger(ctx, "cart.add_rejected", map[string]any{"reason": err.Error()})
		return domain.CartSnapshot{}, fmt.Errorf("%w: %v", ErrCartInvalidInput, err)
	}
	if item.Price == 0 {
		s.logger(ctx, "cart.item_zero_price", map[string]any{
			"productID": item.ID,
			"title":     item.Title,
		})
	}

	s.mu.Lock()
	items := cloneItems(s.items)
	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Qty += item.Qty
			item = items[i]
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}
	s.items = items
	snapshot := domain.Snapshot(items)
	snapshot.Added = &item
	s.persistLocked(ctx, items)
	s.mu.Unlock()

	s.broadcast(snapshot)
	return snapshot, nil
}

func (s *localCartStore) RemoveItem(ctx context.Context, id any) (domain.CartSnapshot, error) {
	target := domain.NormalizeID(id)
	if target == "" {
		return domain.CartSnapshot{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}

	s.mu.Lock()
	items := make([]domain.LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != target {
			items = append(items, item)
		}
	}
	s.items = items
	snapshot := domain.Snapshot(items)
	s.persistLocked(ctx, items)
	s.mu.Unlock()

	s.broadcast(snapshot)
	return snapshot, nil
}

func (s *localCartStore) SetQuantity(ctx context.Context, id any, qty int) (domain.CartSnapshot, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, id)
	}

	target := domain.NormalizeID(id)
	if target == "" {
		return domain.CartSnapshot{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}

	s.mu.Lock()
	items := cloneItems(s.items)
	for i := range items {
		if items[i].ID == target {
			items[i].Qty = qty
			break
		}
	}
	s.items = items
	snapshot := domain.Snapshot(items)
	s.persistLocked(ctx, items)
	s.mu.Unlock()

	s.broadcast(snapshot)
	return snapshot, nil
}

func (s *localCartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	if err := s.slot.Clear(); err != nil {
		s.logger(ctx, "cart.persist_failed", map[string]any{"error": err.Error()})
	}
	s.mu.Unlock()

	s.broadcast(domain.Snapshot(nil))
	return nil
}

func (s *localCartStore) Snapshot(ctx context.Context) (domain.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Snapshot(s.items), nil
}

func (s *localCartStore) Total(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartTotal(s.items), nil
}

// Refresh re-hydrates from the slot and broadcasts, so an external write by
// another storefront process reaches this process's views.
func (s *localCartStore) Refresh(ctx context.Context) error {
	items := s.hydrate(ctx)

	s.mu.Lock()
	s.items = items
	snapshot := domain.Snapshot(items)
	s.mu.Unlock()

	s.broadcast(snapshot)
	return nil
}

// persistLocked writes the item list to the slot. Persistence failures are
// logged and do not abort the mutation: the in-memory cart stays canonical
// and the broadcast still happens.
func (s *localCartStore) persistLocked(ctx context.Context, items []domain.LineItem) {
	data, err := json.Marshal(items)
	if err != nil {
		s.logger(ctx, "cart.persist_failed", map[string]any{"error": err.Error()})
		return
	}
	if err := s.slot.Write(data); err != nil {
		s.logger(ctx, "cart.persist_failed", map[string]any{"error": err.Error()})
	}
}

// broadcast publishes both signals now and schedules one re-emission after
// the configured delay, covering observers that mount just after a mutation.
func (s *localCartStore) broadcast(snapshot domain.CartSnapshot) {
	s.bus.PublishSnapshot(snapshot)
	time.AfterFunc(s.rebroadcast, func() {
		s.bus.PublishSnapshot(snapshot)
	})
}

func cloneItems(items []domain.LineItem) []domain.LineItem {
	if len(items) == 0 {
		return nil
	}
	dup := make([]domain.LineItem, len(items))
	copy(dup, items)
	return dup
}
