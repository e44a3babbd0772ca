package textutil

import "strings"

// NormalizeEnvMap cleans a raw environment map before config lookup. Keys and
// values arrive with stray whitespace from .env files; entries with blank
// keys are dropped. Returns nil when nothing survives.
func NormalizeEnvMap(values map[string]string) map[string]string {
	var cleaned map[string]string
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if cleaned == nil {
			cleaned = make(map[string]string, len(values))
		}
		cleaned[key] = strings.TrimSpace(value)
	}
	return cleaned
}

// CanonicalCode normalizes a promo code for lookup: surrounding whitespace
// stripped, upper case. Shoppers type codes by hand.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
