package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/platform/httpx"
	"github.com/localmandi/storefront/internal/platform/pagination"
	"github.com/localmandi/storefront/internal/services"
)

// CatalogHandlers exposes the read-only product catalog and checkout offers.
type CatalogHandlers struct {
	catalog *services.CatalogService
}

// NewCatalogHandlers constructs handlers over the catalog reader.
func NewCatalogHandlers(catalog *services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes wires the /catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/offers", h.listOffers)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	params, err := pagination.ParseParams(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	if params.Category != "" {
		filtered := make([]domain.Product, 0, len(products))
		for _, product := range products {
			if strings.EqualFold(product.Category, params.Category) {
				filtered = append(filtered, product)
			}
		}
		products = filtered
	}
	if products == nil {
		products = []domain.Product{}
	}

	start, end, next := params.Page(len(products))
	payload := map[string]any{"products": products[start:end]}
	if next != "" {
		payload["nextPageToken"] = next
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, product)
}

func (h *CatalogHandlers) listOffers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	offers, err := h.catalog.ListOffers(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"offers": offers})
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		writeCatalogUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "catalog read failed", http.StatusInternalServerError))
	}
}

func writeCatalogUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
}
