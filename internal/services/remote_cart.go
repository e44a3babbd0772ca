package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/localmandi/storefront/internal/bus"
	domain "github.com/localmandi/storefront/internal/domain"
)

var errCartAPIRequired = errors.New("cart: orders API client is required")

// cartAPI is the slice of the orders client the remote store consumes.
type cartAPI interface {
	FetchCart(ctx context.Context) ([]domain.LineItem, error)
	UpdateCart(ctx context.Context, items []domain.LineItem) error
}

// RemoteCartDeps wires the orders API client for the authenticated cart.
type RemoteCartDeps struct {
	API              cartAPI
	Bus              *bus.Bus
	RebroadcastDelay time.Duration
	Logger           func(context.Context, string, map[string]any)
}

// remoteCartStore mirrors the server-side cart of an authenticated shopper.
// Mutations apply to the in-memory mirror first, then push to the API, then
// broadcast, the same ordering the local store follows. The durable slot is
// never touched.
type remoteCartStore struct {
	api         cartAPI
	bus         *bus.Bus
	rebroadcast time.Duration
	logger      func(context.Context, string, map[string]any)

	mu    sync.Mutex
	items []domain.LineItem
}

var _ CartStore = (*remoteCartStore)(nil)

// NewRemoteCartStore constructs the API-backed cart and hydrates it from the
// server. A hydrate failure starts an empty mirror with a warning; the next
// Refresh retries.
func NewRemoteCartStore(ctx context.Context, deps RemoteCartDeps) (CartStore, error) {
	if deps.API == nil {
		return nil, errCartAPIRequired
	}
	if deps.Bus == nil {
		return nil, errCartBusRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	delay := deps.RebroadcastDelay
	if delay <= 0 {
		delay = defaultRebroadcastDelay
	}

	s := &remoteCartStore{
		api:         deps.API,
		bus:         deps.Bus,
		rebroadcast: delay,
		logger:      logger,
	}

	items, err := deps.API.FetchCart(ctx)
	if err != nil {
		logger(ctx, "cart.remote_hydrate_failed", map[string]any{"error": err.Error()})
	} else {
		s.items = items
	}
	return s, nil
}

func (s *remoteCartStore) AddItem(ctx context.Context, product domain.ProductInput, qty int) (domain.CartSnapshot, error) {
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
	s.pushLocked(ctx, items)
	s.mu.Unlock()

	s.broadcast(snapshot)
	return snapshot, nil
}

func (s *remoteCartStore) RemoveItem(ctx context.Context, id any) (domain.CartSnapshot, error) {
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
	s.pushLocked(ctx, items)
	s.mu.Unlock()

	s.broadcast(snapshot)
	return snapshot, nil
}

func (s *remoteCartStore) SetQuantity(ctx context.Context, id any, qty int) (domain.CartSnapshot, error) {
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
	s.pushLocked(ctx, items)
	s.mu.Unlock()

	s.broadcast(snapshot)
	return snapshot, nil
}

func (s *remoteCartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	s.pushLocked(ctx, nil)
	s.mu.Unlock()

	s.broadcast(domain.Snapshot(nil))
	return nil
}

func (s *remoteCartStore) Snapshot(ctx context.Context) (domain.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Snapshot(s.items), nil
}

func (s *remoteCartStore) Total(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartTotal(s.items), nil
}

func (s *remoteCartStore) Refresh(ctx context.Context) error {
	items, err := s.api.FetchCart(ctx)
	if err != nil {
		s.logger(ctx, "cart.remote_hydrate_failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}

	s.mu.Lock()
	s.items = items
	snapshot := domain.Snapshot(items)
	s.mu.Unlock()

	s.broadcast(snapshot)
	return nil
}

// pushLocked mirrors the item list to the server. Like slot persistence,
// failures log and do not abort the mutation.
func (s *remoteCartStore) pushLocked(ctx context.Context, items []domain.LineItem) {
	if err := s.api.UpdateCart(ctx, items); err != nil {
		s.logger(ctx, "cart.remote_push_failed", map[string]any{"error": err.Error()})
	}
}

func (s *remoteCartStore) broadcast(snapshot domain.CartSnapshot) {
	s.bus.PublishSnapshot(snapshot)
	time.AfterFunc(s.rebroadcast, func() {
		s.bus.PublishSnapshot(snapshot)
	})
}
