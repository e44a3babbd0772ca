// Package services implements the storefront's cart runtime: the cart stores,
// the views observing them, the checkout flow, and the catalog reader.
package services

import (
	"context"
	"errors"

	domain "github.com/localmandi/storefront/internal/domain"
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart: invalid input")

// ErrCartUnavailable indicates the cart cannot fulfil the request due to
// missing dependencies or backend issues.
var ErrCartUnavailable = errors.New("cart: unavailable")

// CartStore is the single cart interface observers and checkout consume.
// Implementations exist for the guest cart (durable local slot) and the
// authenticated cart (remote orders API); the source is selected once at
// session start and callers never branch on it.
//
// Every mutation follows the same ordering: the new line-item list is
// computed in memory first, then persisted, then broadcast. The returned
// snapshot is the one that was broadcast.
type CartStore interface {
	// AddItem normalises a loose product record and merges it into the cart.
	// Adding an id already present sums quantities; records without a
	// resolvable id are rejected with ErrCartInvalidInput.
	AddItem(ctx context.Context, product domain.ProductInput, qty int) (domain.CartSnapshot, error)

	// RemoveItem deletes the line item with the given id. Removing an absent
	// id leaves the list unchanged.
	RemoveItem(ctx context.Context, id any) (domain.CartSnapshot, error)

	// SetQuantity replaces the quantity for the given id. A quantity <= 0 is
	// equivalent to RemoveItem. An absent id leaves the list unchanged.
	SetQuantity(ctx context.Context, id any, qty int) (domain.CartSnapshot, error)

	// Clear empties the cart and removes the durable copy.
	Clear(ctx context.Context) error

	// Snapshot returns the current items and derived total.
	Snapshot(ctx context.Context) (domain.CartSnapshot, error)

	// Total returns the derived cart total.
	Total(ctx context.Context) (float64, error)

	// Refresh re-reads the backing source and broadcasts the result. Invoked
	// when the slot watcher reports an external write.
	Refresh(ctx context.Context) error
}
