package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultTTL bounds how long a completed place-order response stays replayable.
const DefaultTTL = 24 * time.Hour

// ErrFingerprintMismatch reports an idempotency key reused for a different request.
var ErrFingerprintMismatch = errors.New("idempotency: key reused for a different request")

// ReservationState is the outcome of claiming a key for a requester.
type ReservationState int

const (
	// ReservationStateNew means the key is unclaimed and the handler may run.
	ReservationStateNew ReservationState = iota
	// ReservationStateCompleted means a stored response exists and must be replayed.
	ReservationStateCompleted
	// ReservationStatePending means another in-flight request holds the key.
	ReservationStatePending
)

// Reservation is the result of Reserve, carrying the stored record when one exists.
type Reservation struct {
	State  ReservationState
	Record Record
}

// Record is one requester's claim on an idempotency key. Once Completed it
// carries the response any retry of the same request gets back.
type Record struct {
	Requester   string
	Key         string
	Fingerprint string
	Completed   bool
	Response    Response
	ReservedAt  time.Time
	ExpiresAt   time.Time
}

// Response is the handler output replayed to retries, an order confirmation
// in the checkout flow.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Store persists idempotency records scoped per requester. A guest and an
// authenticated shopper reusing the same key never collide.
type Store interface {
	Reserve(ctx context.Context, requester, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	SaveResponse(ctx context.Context, requester, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, requester, key string) error
}

func recordID(requester, key string) string {
	return sha256Hex([]byte(strings.TrimSpace(requester) + "\x00" + strings.TrimSpace(key)))
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// replayableHeaders copies the headers worth replaying, dropping hop-by-hop
// and length headers the replay writer recomputes.
func replayableHeaders(src http.Header) http.Header {
	if len(src) == 0 {
		return nil
	}
	dst := make(http.Header, len(src))
	for name, values := range src {
		switch strings.ToLower(name) {
		case "content-length", "date", "connection", "keep-alive", "transfer-encoding", "upgrade", "trailer":
			continue
		}
		dst[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
	if len(dst) == 0 {
		return nil
	}
	return dst
}
