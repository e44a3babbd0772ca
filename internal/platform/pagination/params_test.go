package pagination

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestParseParamsDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/products", nil)
	params, err := ParseParams(req)
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if params.PageSize != DefaultPageSize || params.Cursor.Offset != 0 {
		t.Fatalf("unexpected params %+v", params)
	}
}

func TestParseParamsRejectsBadPageSize(t *testing.T) {
	for _, raw := range []string{"0", "-3", "abc", "101"} {
		req := httptest.NewRequest("GET", "/products?pageSize="+raw, nil)
		if _, err := ParseParams(req); !errors.Is(err, ErrInvalidPageSize) {
			t.Fatalf("pageSize=%s: expected ErrInvalidPageSize, got %v", raw, err)
		}
	}
}

func TestParseParamsRejectsBadToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/products?pageToken=!!!", nil)
	if _, err := ParseParams(req); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := EncodeToken(Cursor{Offset: 25})
	if err != nil {
		t.Fatalf("EncodeToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	cursor, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}
	if cursor.Offset != 25 {
		t.Fatalf("expected offset 25, got %d", cursor.Offset)
	}
}

func TestPageSlicing(t *testing.T) {
	params := Params{PageSize: 10, Cursor: Cursor{Offset: 15}}

	start, end, next := params.Page(40)
	if start != 15 || end != 25 || next == "" {
		t.Fatalf("unexpected page %d..%d next=%q", start, end, next)
	}

	cursor, err := DecodeToken(next)
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}
	if cursor.Offset != 25 {
		t.Fatalf("expected next offset 25, got %d", cursor.Offset)
	}

	start, end, next = Params{PageSize: 10, Cursor: Cursor{Offset: 35}}.Page(40)
	if start != 35 || end != 40 || next != "" {
		t.Fatalf("last page should have no token, got %d..%d next=%q", start, end, next)
	}
}
