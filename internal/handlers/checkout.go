package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/platform/httpx"
	"github.com/localmandi/storefront/internal/platform/requestctx"
	"github.com/localmandi/storefront/internal/services"
)

// CheckoutHandlers exposes the review computation and order placement.
type CheckoutHandlers struct {
	checkout *services.CheckoutService
}

// NewCheckoutHandlers constructs handlers over the checkout flow.
func NewCheckoutHandlers(checkout *services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/review", h.review)
	r.Post("/orders", h.placeOrder)
}

type placeOrderRequest struct {
	PromoCode string               `json:"promoCode"`
	Contact   *domain.GuestContact `json:"contact"`
}

func (h *CheckoutHandlers) review(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		writeCheckoutUnavailable(ctx, w)
		return
	}

	review, err := h.checkout.Review(ctx, r.URL.Query().Get("promo"))
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, review)
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		writeCheckoutUnavailable(ctx, w)
		return
	}

	var req placeOrderRequest
	body, err := readLimitedBody(r, maxBodySize)
	switch {
	case err == nil:
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
			return
		}
	case errors.Is(err, errEmptyBody):
		// An empty body places a plain order with no promo.
	default:
		writeBodyError(ctx, w, err)
		return
	}

	// Anonymous shoppers must supply contact details with the order.
	if _, authenticated := requestctx.SessionFromContext(ctx); !authenticated && req.Contact == nil {
		writeCheckoutError(ctx, w, services.ErrCheckoutContactRequired)
		return
	}

	confirmation, err := h.checkout.PlaceOrder(ctx, services.PlaceOrderCommand{
		PromoCode: req.PromoCode,
		Contact:   req.Contact,
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, confirmation)
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutBlockedItems):
		httpx.WriteError(ctx, w, httpx.NewError("blocked_items", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCheckoutInvalidPromo):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_promo", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutZeroPayable):
		httpx.WriteError(ctx, w, httpx.NewError("zero_payable", "payable amount must be positive", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCheckoutContactRequired):
		httpx.WriteError(ctx, w, httpx.NewError("contact_required", "guest orders require contact details", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		writeCheckoutUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "checkout failed", http.StatusInternalServerError))
	}
}

func writeCheckoutUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout is unavailable", http.StatusServiceUnavailable))
}
