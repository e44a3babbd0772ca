package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/localmandi/storefront/internal/clients/orders"
	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/repositories"
)

var (
	errCheckoutStoreRequired = errors.New("checkout: cart store is required")

	// ErrCheckoutEmptyCart indicates there is nothing to order.
	ErrCheckoutEmptyCart = errors.New("checkout: cart is empty")
	// ErrCheckoutBlockedItems indicates line items that cannot be ordered:
	// missing product id or non-positive price.
	ErrCheckoutBlockedItems = errors.New("checkout: cart contains unorderable items")
	// ErrCheckoutInvalidPromo indicates the promo code matched no offer.
	ErrCheckoutInvalidPromo = errors.New("checkout: invalid promo code")
	// ErrCheckoutZeroPayable indicates the discounted total is not positive.
	ErrCheckoutZeroPayable = errors.New("checkout: payable amount must be positive")
	// ErrCheckoutUnavailable indicates order placement failed downstream.
	ErrCheckoutUnavailable = errors.New("checkout: unavailable")
	// ErrCheckoutContactRequired indicates a guest order without contact details.
	ErrCheckoutContactRequired = errors.New("checkout: guest contact is required")
)

// orderPlacer is the slice of the orders client checkout consumes.
type orderPlacer interface {
	CreateOrder(ctx context.Context, req orders.OrderRequest) (domain.OrderConfirmation, error)
	CreateGuestOrder(ctx context.Context, req orders.GuestOrderRequest) (domain.OrderConfirmation, error)
}

// CheckoutServiceDeps wires checkout's dependencies.
type CheckoutServiceDeps struct {
	Store       CartStore
	Offers      repositories.OfferRepository
	Orders      orderPlacer
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

// CheckoutReview is the frozen order summary shown on the review screen. It
// is read from the cart exactly once; later cart changes do not move it.
type CheckoutReview struct {
	Items     []domain.LineItem `json:"items"`
	Total     float64           `json:"total"`
	Discount  float64           `json:"discount"`
	Payable   float64           `json:"payable"`
	PromoCode string            `json:"promoCode,omitempty"`
}

// PlaceOrderCommand carries the inputs for order placement. A nil Contact
// places an authenticated order; a non-nil Contact places a guest order.
type PlaceOrderCommand struct {
	PromoCode string
	Contact   *domain.GuestContact
}

type CheckoutService struct {
	store  CartStore
	offers repositories.OfferRepository
	orders orderPlacer
	newRef func() string
	logger func(context.Context, string, map[string]any)
}

// NewCheckoutService constructs the checkout flow enforcing dependency validation.
func NewCheckoutService(deps CheckoutServiceDeps) (*CheckoutService, error) {
	if deps.Store == nil {
		return nil, errCheckoutStoreRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	newRef := deps.IDGenerator
	if newRef == nil {
		newRef = func() string { return ulid.Make().String() }
	}

	return &CheckoutService{
		store:  deps.Store,
		offers: deps.Offers,
		orders: deps.Orders,
		newRef: newRef,
		logger: logger,
	}, nil
}

// Review performs the one-shot frozen read and computes the discounted
// summary for the given promo code ("" for none).
func (s *CheckoutService) Review(ctx context.Context, promoCode string) (CheckoutReview, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return CheckoutReview{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}
	return s.buildReview(ctx, snapshot, promoCode)
}

// PlaceOrder validates the frozen cart, places the order, then clears the
// cart and broadcasts the empty state.
func (s *CheckoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.OrderConfirmation, error) {
	if s.orders == nil {
		return domain.OrderConfirmation{}, ErrCheckoutUnavailable
	}

	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return domain.OrderConfirmation{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}

	review, err := s.buildReview(ctx, snapshot, cmd.PromoCode)
	if err != nil {
		return domain.OrderConfirmation{}, err
	}
	if blocked := blockedItems(review.Items); len(blocked) > 0 {
		return domain.OrderConfirmation{}, fmt.Errorf("%w: %s", ErrCheckoutBlockedItems, strings.Join(blocked, ", "))
	}
	if review.Payable <= 0 {
		return domain.OrderConfirmation{}, ErrCheckoutZeroPayable
	}

	req := orders.OrderRequest{
		Items:     review.Items,
		Total:     review.Payable,
		Discount:  review.Discount,
		PromoCode: review.PromoCode,
	}

	var confirmation domain.OrderConfirmation
	if cmd.Contact != nil {
		contact := *cmd.Contact
		if strings.TrimSpace(contact.Name) == "" || strings.TrimSpace(contact.Phone) == "" || strings.TrimSpace(contact.Address) == "" {
			return domain.OrderConfirmation{}, ErrCheckoutContactRequired
		}
		confirmation, err = s.orders.CreateGuestOrder(ctx, orders.GuestOrderRequest{
			OrderRequest: req,
			Contact:      contact,
		})
	} else {
		confirmation, err = s.orders.CreateOrder(ctx, req)
	}
	if err != nil {
		s.logger(ctx, "checkout.place_order_failed", map[string]any{"error": err.Error()})
		return domain.OrderConfirmation{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}

	if confirmation.Reference == "" {
		confirmation.Reference = s.newRef()
	}

	s.logger(ctx, "checkout.order_placed", map[string]any{
		"orderID":   confirmation.OrderID,
		"reference": confirmation.Reference,
		"total":     confirmation.Total,
		"discount":  confirmation.Discount,
	})

	if err := s.store.Clear(ctx); err != nil {
		s.logger(ctx, "checkout.clear_failed", map[string]any{"error": err.Error()})
	}
	return confirmation, nil
}

func (s *CheckoutService) buildReview(ctx context.Context, snapshot domain.CartSnapshot, promoCode string) (CheckoutReview, error) {
	if len(snapshot.Items) == 0 {
		return CheckoutReview{}, ErrCheckoutEmptyCart
	}

	review := CheckoutReview{
		Items:   snapshot.Items,
		Total:   snapshot.Total,
		Payable: snapshot.Total,
	}

	code := strings.TrimSpace(promoCode)
	if code == "" {
		return review, nil
	}
	if s.offers == nil {
		return CheckoutReview{}, ErrCheckoutInvalidPromo
	}

	offer, err := s.offers.FindByCode(ctx, code)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return CheckoutReview{}, fmt.Errorf("%w: %s", ErrCheckoutInvalidPromo, code)
		}
		return CheckoutReview{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}

	review.PromoCode = offer.Code
	review.Discount = discountFor(offer, snapshot.Total)
	review.Payable = snapshot.Total - review.Discount
	return review, nil
}

// discountFor applies the offer to the total. The discount never exceeds the
// total, so the payable amount never goes below zero.
func discountFor(offer domain.Offer, total float64) float64 {
	var discount float64
	switch strings.ToLower(strings.TrimSpace(offer.Type)) {
	case "percent":
		discount = total * offer.Value / 100
	case "flat":
		discount = offer.Value
	}
	if discount < 0 {
		discount = 0
	}
	if discount > total {
		discount = total
	}
	return discount
}

func blockedItems(items []domain.LineItem) []string {
	var blocked []string
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			blocked = append(blocked, fmt.Sprintf("%s (missing id)", displayName(item)))
			continue
		}
		if item.Price <= 0 {
			blocked = append(blocked, fmt.Sprintf("%s (no price)", displayName(item)))
		}
	}
	return blocked
}

func displayName(item domain.LineItem) string {
	if item.Title != "" {
		return item.Title
	}
	if item.Name != "" {
		return item.Name
	}
	if item.ID != "" {
		return item.ID
	}
	return "unknown item"
}
