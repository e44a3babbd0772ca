// Package jsonfile provides repositories backed by locally synced data files:
// the flat product catalog and the CMS-authored offer documents.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/repositories"
)

// CatalogRepository serves products from a flat JSON file. Entries use the
// same loose field conventions the cart accepts, so a file produced by any of
// the vendor feeds loads without preprocessing.
type CatalogRepository struct {
	path string

	mu       sync.RWMutex
	loaded   bool
	products []domain.Product
	byID     map[string]domain.Product
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository binds a repository to the given products file. The
// file is read lazily on first access and cached.
func NewCatalogRepository(path string) (*CatalogRepository, error) {
	if path == "" {
		return nil, errors.New("catalog repository: products file path is required")
	}
	return &CatalogRepository{path: path}, nil
}

// ListProducts implements repositories.CatalogRepository.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

// GetProduct implements repositories.CatalogRepository.
func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if err := r.ensureLoaded(); err != nil {
		return domain.Product{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.byID[productID]
	if !ok {
		return domain.Product{}, repositories.NewNotFoundError(fmt.Sprintf("catalog repository: product %s not found", productID))
	}
	return product, nil
}

// Path returns the products file backing this repository.
func (r *CatalogRepository) Path() string {
	return r.path
}

// Reload discards the cache so the next access re-reads the file. Called when
// the catalog file is replaced by a sync.
func (r *CatalogRepository) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.products = nil
	r.byID = nil
}

func (r *CatalogRepository) ensureLoaded() error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		r.products = nil
		r.byID = map[string]domain.Product{}
		r.loaded = true
		return nil
	}
	if err != nil {
		return repositories.NewUnavailableError("catalog repository: reading products file", err)
	}

	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return repositories.NewUnavailableError("catalog repository: parsing products file", err)
	}

	products := make([]domain.Product, 0, len(entries))
	byID := make(map[string]domain.Product, len(entries))
	for _, entry := range entries {
		item, err := domain.NormalizeProduct(entry, 1)
		if err != nil {
			// Entries without a usable id cannot be carted; skip them.
			continue
		}
		product := domain.Product{
			ID:       item.ID,
			Title:    item.Title,
			Price:    item.Price,
			Category: stringField(entry, "category"),
			Supplier: stringField(entry, "supplier"),
			ImageURL: stringField(entry, "imageUrl"),
		}
		if _, dup := byID[product.ID]; dup {
			continue
		}
		products = append(products, product)
		byID[product.ID] = product
	}

	r.products = products
	r.byID = byID
	r.loaded = true
	return nil
}

func stringField(entry map[string]any, key string) string {
	if v, ok := entry[key].(string); ok {
		return v
	}
	return ""
}
