package repositories

import (
	"context"

	domain "github.com/localmandi/storefront/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CatalogRepository exposes the locally synced product catalog.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

// OfferRepository exposes the CMS-authored checkout offers.
type OfferRepository interface {
	ListOffers(ctx context.Context) ([]domain.Offer, error)
	FindByCode(ctx context.Context, code string) (domain.Offer, error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.HealthReport, error)
}
