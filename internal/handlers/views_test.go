package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/localmandi/storefront/internal/bus"
	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/platform/slot"
	"github.com/localmandi/storefront/internal/services"
)

func TestViewEndpointsServeDerivedState(t *testing.T) {
	events := bus.New()
	store, err := services.NewLocalCartStore(services.LocalCartDeps{
		Slot:             slot.NewMemorySlot(),
		Bus:              events,
		RebroadcastDelay: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewLocalCartStore: %v", err)
	}

	badge, err := services.NewBadgeView(services.BadgeViewDeps{Store: store, Bus: events, TickInterval: time.Hour})
	if err != nil {
		t.Fatalf("NewBadgeView: %v", err)
	}
	defer badge.Close()

	panel, err := services.NewPanelView(services.PanelViewDeps{Store: store, Bus: events, PollInterval: time.Hour})
	if err != nil {
		t.Fatalf("NewPanelView: %v", err)
	}
	defer panel.Close()

	store.AddItem(context.Background(), domain.ProductInput{"id": "p1", "price": 50.0}, 3)

	handlers := NewViewHandlers(badge, panel)
	router := NewRouter(WithViewRoutes(handlers.Routes))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/views/badge", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("badge: expected 200, got %d", rec.Code)
	}
	var badgePayload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &badgePayload); err != nil {
		t.Fatalf("decoding badge: %v", err)
	}
	if badgePayload.Count != 3 {
		t.Fatalf("expected badge count 3, got %d", badgePayload.Count)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/views/panel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("panel: expected 200, got %d", rec.Code)
	}
	var snapshot domain.CartSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decoding panel: %v", err)
	}
	if len(snapshot.Items) != 1 || snapshot.Total != 150 {
		t.Fatalf("unexpected panel snapshot %+v", snapshot)
	}
}

func TestViewEndpointsUnavailableWithoutViews(t *testing.T) {
	handlers := NewViewHandlers(nil, nil)
	router := NewRouter(WithViewRoutes(handlers.Routes))

	for _, path := range []string{"/api/v1/views/badge", "/api/v1/views/panel"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, rec.Code)
		}
	}
}
