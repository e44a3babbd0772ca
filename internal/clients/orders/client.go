// Package orders talks to the remote orders API used for authenticated
// shopper sessions: server-side cart reads and order placement.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/localmandi/storefront/internal/domain"
)

// Sentinel errors callers branch on.
var (
	// ErrUnauthorized indicates the session token was missing or rejected.
	ErrUnauthorized = errors.New("orders: unauthorized")
	// ErrUnavailable indicates the API could not be reached or answered 5xx.
	ErrUnavailable = errors.New("orders: service unavailable")
	// ErrRejected indicates the API refused the request as invalid.
	ErrRejected = errors.New("orders: request rejected")
)

const defaultTimeout = 30 * time.Second

// TokenProvider returns the current bearer token, or "" for anonymous calls.
type TokenProvider func() string

// Client is a thin HTTP client for the orders API. Requests carry the session
// bearer token and a shared cookie jar so server-side session affinity works.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   TokenProvider
	logger  *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger attaches a logger for request-level diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client for the given API base URL.
func NewClient(baseURL string, token TokenProvider, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("orders: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("orders: invalid base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("orders: creating cookie jar: %w", err)
	}

	c := &Client{
		baseURL: parsed,
		http: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		token:  token,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// cartResponse mirrors the API's cart payload: a list of loose product maps
// plus quantities.
type cartResponse struct {
	Items []map[string]any `json:"items"`
}

// FetchCart retrieves the server-side cart and normalises its entries into
// line items. Entries without a usable product id are dropped.
func (c *Client) FetchCart(ctx context.Context) ([]domain.LineItem, error) {
	var resp cartResponse
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(resp.Items))
	for _, raw := range resp.Items {
		item, err := domain.NormalizeStored(raw)
		if err != nil {
			c.logger.Warn("dropping cart entry without id", zap.Any("entry", raw))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// OrderRequest is the payload for an authenticated order.
type OrderRequest struct {
	Items     []domain.LineItem `json:"items"`
	Total     float64           `json:"total"`
	Discount  float64           `json:"discount,omitempty"`
	PromoCode string            `json:"promoCode,omitempty"`
}

// GuestOrderRequest is the payload for a guest order, which additionally
// carries the shopper's contact details.
type GuestOrderRequest struct {
	OrderRequest
	Contact domain.GuestContact `json:"contact"`
}

type orderResponse struct {
	OrderID   string  `json:"orderId"`
	Reference string  `json:"reference"`
	Total     float64 `json:"total"`
}

// CreateOrder places an order for an authenticated shopper.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (domain.OrderConfirmation, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders/create", req, &resp); err != nil {
		return domain.OrderConfirmation{}, err
	}
	return domain.OrderConfirmation{
		OrderID:   resp.OrderID,
		Reference: resp.Reference,
		Total:     resp.Total,
		Discount:  req.Discount,
		PromoCode: req.PromoCode,
	}, nil
}

// CreateGuestOrder places an order without an authenticated session.
func (c *Client) CreateGuestOrder(ctx context.Context, req GuestOrderRequest) (domain.OrderConfirmation, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders/create-guest", req, &resp); err != nil {
		return domain.OrderConfirmation{}, err
	}
	return domain.OrderConfirmation{
		OrderID:   resp.OrderID,
		Reference: resp.Reference,
		Total:     resp.Total,
		Discount:  req.Discount,
		PromoCode: req.PromoCode,
	}, nil
}

// UpdateCart replaces the server-side cart with the given items.
func (c *Client) UpdateCart(ctx context.Context, items []domain.LineItem) error {
	payload := struct {
		Items []domain.LineItem `json:"items"`
	}{Items: items}
	return c.do(ctx, http.MethodPost, "/cart", payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	target := c.baseURL.JoinPath(path)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("orders: encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("orders: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("orders request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("orders request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	return nil
}
