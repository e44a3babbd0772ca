package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/platform/httpx"
	"github.com/localmandi/storefront/internal/services"
)

// CartHandlers exposes the cart mutations and the snapshot read. The catalog
// service, when present, backfills prices for records that arrive without one.
type CartHandlers struct {
	store   services.CartStore
	catalog *services.CatalogService
}

// NewCartHandlers constructs handlers over the selected cart store.
func NewCartHandlers(store services.CartStore, catalog *services.CatalogService) *CartHandlers {
	return &CartHandlers{
		store:   store,
		catalog: catalog,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Post("/items", h.addItem)
	r.Put("/items/{itemID}", h.setQuantity)
	r.Delete("/items/{itemID}", h.removeItem)
	r.Post("/clear", h.clearCart)
	r.Post("/refresh", h.refreshCart)
}

type addItemRequest struct {
	Product domain.ProductInput `json:"product"`
	Qty     int                 `json:"qty"`
}

type setQuantityRequest struct {
	Qty int `json:"qty"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	snapshot, err := h.store.Snapshot(ctx)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, snapshot)
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req addItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if len(req.Product) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product is required", http.StatusBadRequest))
		return
	}

	product := req.Product
	if h.catalog != nil {
		product, err = h.catalog.ResolveForCart(ctx, product)
		if err != nil {
			h.writeCartError(ctx, w, err)
			return
		}
	}

	snapshot, err := h.store.AddItem(ctx, product, req.Qty)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, snapshot)
}

func (h *CartHandlers) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if itemID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "item id is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req setQuantityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	snapshot, err := h.store.SetQuantity(ctx, itemID, req.Qty)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, snapshot)
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if itemID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "item id is required", http.StatusBadRequest))
		return
	}

	snapshot, err := h.store.RemoveItem(ctx, itemID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, snapshot)
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	if err := h.store.Clear(ctx); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, domain.CartSnapshot{Items: []domain.LineItem{}})
}

func (h *CartHandlers) refreshCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	if err := h.store.Refresh(ctx); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	snapshot, err := h.store.Snapshot(ctx)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, snapshot)
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogPriceUnresolved):
		httpx.WriteError(ctx, w, httpx.NewError("price_unresolved", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable), errors.Is(err, services.ErrCartUnavailable):
		writeCartUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "cart operation failed", http.StatusInternalServerError))
	}
}

func writeCartUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}
