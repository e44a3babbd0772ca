package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/localmandi/storefront/internal/bus"
	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/platform/slot"
)

type stubCartAPI struct {
	mu          sync.Mutex
	fetchFn     func(ctx context.Context) ([]domain.LineItem, error)
	updateFn    func(ctx context.Context, items []domain.LineItem) error
	lastPushed  []domain.LineItem
	pushedCount int
}

func (s *stubCartAPI) FetchCart(ctx context.Context) ([]domain.LineItem, error) {
	if s.fetchFn != nil {
		return s.fetchFn(ctx)
	}
	return nil, nil
}

func (s *stubCartAPI) UpdateCart(ctx context.Context, items []domain.LineItem) error {
	s.mu.Lock()
	s.lastPushed = items
	s.pushedCount++
	s.mu.Unlock()
	if s.updateFn != nil {
		return s.updateFn(ctx, items)
	}
	return nil
}

func TestRemoteStoreHydratesFromAPI(t *testing.T) {
	api := &stubCartAPI{
		fetchFn: func(ctx context.Context) ([]domain.LineItem, error) {
			return []domain.LineItem{{ID: "p1", Title: "Server Item", Price: 30, Qty: 2}}, nil
		},
	}
	store, err := NewRemoteCartStore(context.Background(), RemoteCartDeps{
		API: api, Bus: bus.New(), RebroadcastDelay: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewRemoteCartStore: %v", err)
	}

	snap, _ := store.Snapshot(context.Background())
	if len(snap.Items) != 1 || snap.Items[0].ID != "p1" || snap.Total != 60 {
		t.Fatalf("unexpected hydrated cart %+v", snap)
	}
}

func TestRemoteStoreHydrateFailureStartsEmpty(t *testing.T) {
	logs := &capturedLog{}
	api := &stubCartAPI{
		fetchFn: func(ctx context.Context) ([]domain.LineItem, error) {
			return nil, errors.New("boom")
		},
	}
	store, err := NewRemoteCartStore(context.Background(), RemoteCartDeps{
		API: api, Bus: bus.New(), RebroadcastDelay: time.Hour, Logger: logs.logger(),
	})
	if err != nil {
		t.Fatalf("NewRemoteCartStore: %v", err)
	}
	snap, _ := store.Snapshot(context.Background())
	if len(snap.Items) != 0 {
		t.Fatalf("expected empty mirror, got %+v", snap.Items)
	}
	if !logs.contains("cart.remote_hydrate_failed") {
		t.Fatal("expected hydrate warning log")
	}
}

func TestRemoteStoreMutationPushesAndBroadcasts(t *testing.T) {
	api := &stubCartAPI{}
	b := bus.New()
	store, err := NewRemoteCartStore(context.Background(), RemoteCartDeps{
		API: api, Bus: b, RebroadcastDelay: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewRemoteCartStore: %v", err)
	}

	var got domain.CartSnapshot
	b.Subscribe(bus.TopicCartUpdatedWithData, func(payload any) {
		got = payload.(domain.CartSnapshot)
	})

	snap, err := store.AddItem(context.Background(), domain.ProductInput{"id": "p1", "price": 25.0}, 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if snap.Total != 50 {
		t.Fatalf("unexpected total %v", snap.Total)
	}

	api.mu.Lock()
	pushed := api.lastPushed
	api.mu.Unlock()
	if len(pushed) != 1 || pushed[0].ID != "p1" {
		t.Fatalf("expected push to API, got %+v", pushed)
	}
	if got.Total != 50 {
		t.Fatalf("expected broadcast, got %+v", got)
	}
}

func TestRemoteStoreMergesLikeLocal(t *testing.T) {
	api := &stubCartAPI{}
	store, _ := NewRemoteCartStore(context.Background(), RemoteCartDeps{
		API: api, Bus: bus.New(), RebroadcastDelay: time.Hour,
	})
	ctx := context.Background()

	store.AddItem(ctx, domain.ProductInput{"id": "p1", "price": 10.0}, 1)
	snap, _ := store.AddItem(ctx, domain.ProductInput{"id": "p1", "price": 10.0}, 2)
	if len(snap.Items) != 1 || snap.Items[0].Qty != 3 {
		t.Fatalf("expected merged qty 3, got %+v", snap.Items)
	}
}

func TestRemoteStoreRefreshSurfacesAPIErrors(t *testing.T) {
	calls := 0
	api := &stubCartAPI{
		fetchFn: func(ctx context.Context) ([]domain.LineItem, error) {
			calls++
			if calls == 1 {
				return nil, nil
			}
			return nil, errors.New("down")
		},
	}
	store, _ := NewRemoteCartStore(context.Background(), RemoteCartDeps{
		API: api, Bus: bus.New(), RebroadcastDelay: time.Hour,
	})

	if err := store.Refresh(context.Background()); !errors.Is(err, ErrCartUnavailable) {
		t.Fatalf("expected ErrCartUnavailable, got %v", err)
	}
}

func TestSelectCartStorePicksRemoteOnlyWhenAuthenticated(t *testing.T) {
	api := &stubCartAPI{}
	deps := CartSourceDeps{
		Bus:              bus.New(),
		API:              api,
		RebroadcastDelay: time.Hour,
	}

	deps.Authenticated = true
	remote, err := SelectCartStore(context.Background(), deps)
	if err != nil {
		t.Fatalf("SelectCartStore remote: %v", err)
	}
	if _, ok := remote.(*remoteCartStore); !ok {
		t.Fatalf("expected remote store, got %T", remote)
	}

	deps.Authenticated = false
	deps.Slot = slot.NewMemorySlot()
	local, err := SelectCartStore(context.Background(), deps)
	if err != nil {
		t.Fatalf("SelectCartStore local: %v", err)
	}
	if _, ok := local.(*localCartStore); !ok {
		t.Fatalf("expected local store, got %T", local)
	}
}
