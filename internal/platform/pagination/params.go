// Package pagination parses page-size and cursor parameters for list
// endpoints over the flat catalog.
package pagination

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize defines the fallback number of items returned when the client omits pageSize.
	DefaultPageSize = 50
	// DefaultMaxPageSize caps the supported pageSize to prevent unbounded responses.
	DefaultMaxPageSize = 100
)

var (
	// ErrInvalidPageSize is returned when pageSize is not a positive integer within bounds.
	ErrInvalidPageSize = errors.New("pagination: invalid pageSize")
	// ErrInvalidPageToken is returned when the page token cannot be decoded.
	ErrInvalidPageToken = errors.New("pagination: invalid pageToken")
)

// Params carries the parsed pagination inputs for a list request.
type Params struct {
	PageSize int
	Cursor   Cursor
	Category string
}

// ParseParams extracts pagination parameters from the request query string.
func ParseParams(r *http.Request) (Params, error) {
	params := Params{PageSize: DefaultPageSize}
	if r == nil {
		return params, nil
	}
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("pageSize")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 || size > DefaultMaxPageSize {
			return Params{}, ErrInvalidPageSize
		}
		params.PageSize = size
	}

	cursor, err := DecodeToken(query.Get("pageToken"))
	if err != nil {
		return Params{}, err
	}
	params.Cursor = cursor

	params.Category = strings.TrimSpace(query.Get("category"))
	return params, nil
}

// Page slices one page out of the full item count. It returns the half-open
// index range [start, end) and the cursor for the next page, or an empty
// token when this page is the last.
func (p Params) Page(total int) (start, end int, next string) {
	start = p.Cursor.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	end = start + size
	if end >= total {
		return start, total, ""
	}
	token, err := EncodeToken(Cursor{Offset: end})
	if err != nil {
		return start, end, ""
	}
	return start, end, token
}
