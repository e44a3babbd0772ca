package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoProductID indicates a product record carried no resolvable identity.
// Items without identity are rejected, never silently inserted.
var ErrNoProductID = errors.New("domain: product id is missing")

// Candidate field names per logical attribute, checked in order. Callers of
// the storefront use several naming conventions for the same product shape;
// normalization is the single place that tolerance lives.
var (
	idFields    = []string{"id", "_id", "sku"}
	titleFields = []string{"title", "name", "productName"}
	nameFields  = []string{"name", "title"}
	priceFields = []string{"price", "amount", "basePrice", "Price", "Amount", "BasePrice"}
)

// ProductInput is a loosely-shaped product record as supplied by callers
// (product cards, browsers, stored bags). Keys and value types vary by source.
type ProductInput map[string]any

// NormalizeProduct maps a loose product record and a requested quantity to a
// strict LineItem. The id is resolved from the id field, an alternate id
// field, a nested product's id, then a SKU; absence is an error. The price is
// resolved from its candidate fields and coerced to a non-negative number,
// defaulting to zero when absent or unparseable. A quantity <= 0 falls back
// to the record's own quantity field, then to one.
func NormalizeProduct(product ProductInput, qty int) (LineItem, error) {
	id := resolveID(product)
	if id == "" {
		return LineItem{}, ErrNoProductID
	}

	price := ResolvePrice(product)

	title := firstString(product, titleFields)
	if title == "" {
		title = id
	}
	name := firstString(product, nameFields)

	if qty <= 0 {
		if n, ok := toNumber(product["quantity"]); ok && n > 0 {
			qty = int(n)
		} else {
			qty = 1
		}
	}

	return LineItem{
		ID:    id,
		Title: title,
		Name:  name,
		Price: price,
		Qty:   qty,
	}, nil
}

// ResolvePrice extracts a unit price from a loose product record, checking
// the candidate price fields in order. Unparseable and negative values
// resolve to zero.
func ResolvePrice(product ProductInput) float64 {
	for _, field := range priceFields {
		value, ok := product[field]
		if !ok || value == nil {
			continue
		}
		if n, parsed := toNumber(value); parsed {
			if n > 0 {
				return n
			}
			return 0
		}
		// Present but unparseable counts as a resolution attempt; the
		// item is still accepted at price zero.
		return 0
	}
	return 0
}

// NormalizeStored maps a raw slot entry back to a LineItem, tolerating the
// legacy "quantity" field alongside "qty". Entries without identity are
// dropped by the caller.
func NormalizeStored(raw ProductInput) (LineItem, error) {
	id := resolveID(raw)
	if id == "" {
		return LineItem{}, ErrNoProductID
	}

	title := firstString(raw, titleFields)
	if title == "" {
		title = id
	}

	qty := 1
	if n, ok := toNumber(raw["qty"]); ok && n > 0 {
		qty = int(n)
	} else if n, ok := toNumber(raw["quantity"]); ok && n > 0 {
		qty = int(n)
	}

	price := 0.0
	if n, ok := toNumber(raw["price"]); ok && n > 0 {
		price = n
	}

	return LineItem{
		ID:    id,
		Title: title,
		Name:  firstString(raw, nameFields),
		Price: price,
		Qty:   qty,
	}, nil
}

// NormalizeID renders any id-ish value as the canonical string form used for
// cart comparisons.
func NormalizeID(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return NormalizeID(float64(v))
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func resolveID(product ProductInput) string {
	for _, field := range idFields[:2] {
		if id := NormalizeID(product[field]); id != "" {
			return id
		}
	}
	if nested, ok := product["product"].(map[string]any); ok {
		for _, field := range idFields[:2] {
			if id := NormalizeID(nested[field]); id != "" {
				return id
			}
		}
	}
	return NormalizeID(product["sku"])
}

func firstString(product ProductInput, fields []string) string {
	for _, field := range fields {
		if s, ok := product[field].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case float32:
		return toNumber(float64(v))
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return n, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
