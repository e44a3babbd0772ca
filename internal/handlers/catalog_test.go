package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/services"
)

func newCatalogRouter(t *testing.T) http.Handler {
	t.Helper()
	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: &fakeCatalogRepo{products: map[string]domain.Product{
			"p1": {ID: "p1", Title: "Basmati Rice 5kg", Price: 620},
			"p2": {ID: "p2", Title: "Ghee 1L", Price: 540},
		}},
		Offers: fakeOfferRepo{},
	})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	handlers := NewCatalogHandlers(catalog)
	return NewRouter(WithCatalogRoutes(handlers.Routes))
}

func TestListProductsEndpoint(t *testing.T) {
	router := newCatalogRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Products) != 2 {
		t.Fatalf("expected 2 products, got %+v", payload.Products)
	}
}

func TestListProductsPagination(t *testing.T) {
	router := newCatalogRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?pageSize=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var page struct {
		Products      []domain.Product `json:"products"`
		NextPageToken string           `json:"nextPageToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(page.Products) != 1 || page.NextPageToken == "" {
		t.Fatalf("expected one product and a next token, got %+v", page)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?pageSize=1&pageToken="+page.NextPageToken, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	page.Products = nil
	page.NextPageToken = ""
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(page.Products) != 1 || page.NextPageToken != "" {
		t.Fatalf("expected final page, got %+v", page)
	}
}

func TestListProductsRejectsBadPageSize(t *testing.T) {
	router := newCatalogRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?pageSize=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetProductEndpoint(t *testing.T) {
	router := newCatalogRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/p2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var product domain.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &product); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if product.ID != "p2" || product.Price != 540 {
		t.Fatalf("unexpected product %+v", product)
	}
}

func TestGetProductNotFound(t *testing.T) {
	router := newCatalogRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/ghost", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListOffersEndpoint(t *testing.T) {
	router := newCatalogRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/offers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Offers []domain.Offer `json:"offers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Offers) != 1 || payload.Offers[0].Code != "DIWALI10" {
		t.Fatalf("unexpected offers %+v", payload.Offers)
	}
}
