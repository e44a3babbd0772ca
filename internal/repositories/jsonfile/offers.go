package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/platform/textutil"
	"github.com/localmandi/storefront/internal/repositories"
)

// OfferRepository serves checkout offers from a CMS content file. Both YAML
// and JSON documents parse; the document is either a bare list of offers or a
// mapping with a checkoutOffers key, matching the CMS export formats.
type OfferRepository struct {
	path string

	mu     sync.RWMutex
	loaded bool
	offers []domain.Offer
	byCode map[string]domain.Offer
}

var _ repositories.OfferRepository = (*OfferRepository)(nil)

type offerDocument struct {
	CheckoutOffers []domain.Offer `json:"checkoutOffers" yaml:"checkoutOffers"`
}

// NewOfferRepository binds a repository to the given content file.
func NewOfferRepository(path string) (*OfferRepository, error) {
	if path == "" {
		return nil, errors.New("offer repository: content file path is required")
	}
	return &OfferRepository{path: path}, nil
}

// ListOffers implements repositories.OfferRepository.
func (r *OfferRepository) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Offer, len(r.offers))
	copy(out, r.offers)
	return out, nil
}

// FindByCode implements repositories.OfferRepository. Codes match
// case-insensitively with surrounding whitespace ignored.
func (r *OfferRepository) FindByCode(ctx context.Context, code string) (domain.Offer, error) {
	if err := r.ensureLoaded(); err != nil {
		return domain.Offer{}, err
	}

	key := textutil.CanonicalCode(code)
	r.mu.RLock()
	defer r.mu.RUnlock()
	offer, ok := r.byCode[key]
	if !ok {
		return domain.Offer{}, repositories.NewNotFoundError(fmt.Sprintf("offer repository: no offer for code %q", code))
	}
	return offer, nil
}

// Path returns the offers file backing this repository.
func (r *OfferRepository) Path() string {
	return r.path
}

// Reload discards the cache so the next access re-reads the file.
func (r *OfferRepository) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.offers = nil
	r.byCode = nil
}

func (r *OfferRepository) ensureLoaded() error {
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
		r.offers = nil
		r.byCode = map[string]domain.Offer{}
		r.loaded = true
		return nil
	}
	if err != nil {
		return repositories.NewUnavailableError("offer repository: reading content file", err)
	}

	offers, err := parseOffers(data)
	if err != nil {
		return repositories.NewUnavailableError("offer repository: parsing content file", err)
	}

	byCode := make(map[string]domain.Offer, len(offers))
	kept := offers[:0]
	for _, offer := range offers {
		key := textutil.CanonicalCode(offer.Code)
		if key == "" {
			continue
		}
		if _, dup := byCode[key]; dup {
			continue
		}
		byCode[key] = offer
		kept = append(kept, offer)
	}

	r.offers = kept
	r.byCode = byCode
	r.loaded = true
	return nil
}

func parseOffers(data []byte) ([]domain.Offer, error) {
	var list []domain.Offer
	if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return list, nil
	}

	var doc offerDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.CheckoutOffers, nil
}
