package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "github.com/localmandi/storefront/internal/domain"
)

func TestFetchCartNormalizesEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cart" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tkn" {
			t.Errorf("expected bearer token, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "p1", "title": "Crackers", "price": 120, "qty": 2},
				{"_id": "p2", "name": "Sparklers", "price": 80, "quantity": 3},
				{"title": "orphan", "price": 10},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, func() string { return "tkn" })
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	items, err := client.FetchCart(context.Background())
	if err != nil {
		t.Fatalf("FetchCart: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected entry without id dropped, got %d items", len(items))
	}
	if items[0].ID != "p1" || items[0].Qty != 2 {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].ID != "p2" || items[1].Qty != 3 {
		t.Fatalf("expected legacy quantity honoured, got %+v", items[1])
	}
}

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/create" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(req.Items) != 1 || req.Total != 240 {
			t.Errorf("unexpected request payload %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"orderId":   "ord-1",
			"reference": "REF-1",
			"total":     240,
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, func() string { return "tkn" })
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	conf, err := client.CreateOrder(context.Background(), OrderRequest{
		Items: []domain.LineItem{{ID: "p1", Title: "Crackers", Price: 120, Qty: 2}},
		Total: 240,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if conf.OrderID != "ord-1" || conf.Reference != "REF-1" || conf.Total != 240 {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
}

func TestCreateGuestOrderCarriesContact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/create-guest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req GuestOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Contact.Phone != "9876500000" {
			t.Errorf("expected contact phone, got %+v", req.Contact)
		}
		json.NewEncoder(w).Encode(map[string]any{"orderId": "ord-2", "reference": "REF-2", "total": 10})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.CreateGuestOrder(context.Background(), GuestOrderRequest{
		OrderRequest: OrderRequest{Items: []domain.LineItem{{ID: "p1", Price: 10, Qty: 1}}, Total: 10},
		Contact:      domain.GuestContact{Name: "Asha", Phone: "9876500000", Address: "12 Market Rd"},
	})
	if err != nil {
		t.Fatalf("CreateGuestOrder: %v", err)
	}
}

func TestStatusTranslation(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"bad request", http.StatusBadRequest, ErrRejected},
		{"server error", http.StatusInternalServerError, ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client, err := NewClient(server.URL, nil)
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			_, err = client.FetchCart(context.Background())
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
			}
		})
	}
}

func TestUnreachableServerIsUnavailable(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.FetchCart(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
