package services

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/repositories"
)

var (
	errCatalogRepositoryRequired = errors.New("catalog: repository is required")

	// ErrCatalogProductNotFound indicates the requested product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog: product not found")
	// ErrCatalogUnavailable indicates the catalog backend failed.
	ErrCatalogUnavailable = errors.New("catalog: unavailable")
	// ErrCatalogPriceUnresolved indicates the product still has no positive
	// price after the catalog lookup, so it cannot be added to the cart.
	ErrCatalogPriceUnresolved = errors.New("catalog: product price could not be resolved")
)

// CatalogServiceDeps wires the catalog and offers repositories.
type CatalogServiceDeps struct {
	Catalog repositories.CatalogRepository
	Offers  repositories.OfferRepository
	Logger  func(context.Context, string, map[string]any)
}

// CatalogService serves the read-only product catalog and the CMS checkout
// offers, and backfills prices for add-to-cart.
type CatalogService struct {
	catalog repositories.CatalogRepository
	offers  repositories.OfferRepository
	logger  func(context.Context, string, map[string]any)
}

// NewCatalogService constructs the catalog reader.
func NewCatalogService(deps CatalogServiceDeps) (*CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errCatalogRepositoryRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &CatalogService{
		catalog: deps.Catalog,
		offers:  deps.Offers,
		logger:  logger,
	}, nil
}

// ListProducts returns the full catalog.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, s.translateError(err)
	}
	return products, nil
}

// GetProduct returns a single catalog entry.
func (s *CatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, s.translateError(err)
	}
	return product, nil
}

// ListOffers returns the CMS checkout offers. A missing offers repository
// reads as no offers.
func (s *CatalogService) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	if s.offers == nil {
		return nil, nil
	}
	offers, err := s.offers.ListOffers(ctx)
	if err != nil {
		return nil, s.translateError(err)
	}
	return offers, nil
}

// ResolveForCart prepares a loose product record for AddItem, backfilling the
// price from the catalog when the record resolves to zero. Adding is refused
// when the price is still non-positive afterwards.
func (s *CatalogService) ResolveForCart(ctx context.Context, product domain.ProductInput) (domain.ProductInput, error) {
	if domain.ResolvePrice(product) > 0 {
		return product, nil
	}

	id := domain.NormalizeID(product["id"])
	if id == "" {
		id = domain.NormalizeID(product["_id"])
	}
	if id == "" {
		id = domain.NormalizeID(product["sku"])
	}
	if id != "" {
		entry, err := s.catalog.GetProduct(ctx, id)
		if err == nil && entry.Price > 0 {
			s.logger(ctx, "catalog.price_backfilled", map[string]any{
				"productID": id,
				"price":     entry.Price,
			})
			enriched := make(domain.ProductInput, len(product)+1)
			for k, v := range product {
				enriched[k] = v
			}
			enriched["price"] = entry.Price
			return enriched, nil
		}
		if err != nil {
			var repoErr repositories.RepositoryError
			if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
				return nil, s.translateError(err)
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrCatalogPriceUnresolved, id)
}

func (s *CatalogService) translateError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return ErrCatalogProductNotFound
		}
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
}
