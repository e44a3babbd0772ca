package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/localmandi/storefront/internal/platform/requestctx"
)

func TestIssueAndVerify(t *testing.T) {
	v, err := NewSessionVerifier("test-secret")
	if err != nil {
		t.Fatalf("NewSessionVerifier: %v", err)
	}

	token, err := v.Issue("user-1", "Asha")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Name != "Asha" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issued := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	v, err := NewSessionVerifier("test-secret", WithTokenTTL(time.Minute), WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("NewSessionVerifier: %v", err)
	}

	token, err := v.Issue("user-1", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock = issued.Add(2 * time.Minute)
	if _, err := v.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer, _ := NewSessionVerifier("secret-a")
	verifier, _ := NewSessionVerifier("secret-b")

	token, err := issuer.Issue("user-1", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestRequireSessionMiddleware(t *testing.T) {
	v, err := NewSessionVerifier("test-secret")
	if err != nil {
		t.Fatalf("NewSessionVerifier: %v", err)
	}

	var captured requestctx.Session
	handler := v.RequireSession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = requestctx.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, _ := v.Issue("user-1", "Asha")
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.UserID != "user-1" {
		t.Fatalf("expected session in context, got %+v", captured)
	}
}

func TestRequireSessionRejectsMissingToken(t *testing.T) {
	v, _ := NewSessionVerifier("test-secret")
	handler := v.RequireSession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body["error"] != "unauthenticated" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}

func TestOptionalSessionTreatsBadTokenAsAnonymous(t *testing.T) {
	v, _ := NewSessionVerifier("test-secret")

	var ok bool
	handler := v.OptionalSession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = requestctx.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ok {
		t.Fatal("expected anonymous request, got session")
	}
}
