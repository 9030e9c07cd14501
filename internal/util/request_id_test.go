package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestIDReusesClientID(t *testing.T) {
	const supplied = "client-supplied-id"
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromRequest(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", supplied)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != supplied {
		t.Fatalf("context request id = %q, want %q", seen, supplied)
	}
	if got := rec.Header().Get("X-Request-Id"); got != supplied {
		t.Fatalf("response request id = %q, want %q", got, supplied)
	}
}

func TestWithRequestIDGeneratesID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromRequest(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if seen == "" {
		t.Fatal("expected a generated request id in context")
	}
	if rec.Header().Get("X-Request-Id") != seen {
		t.Fatal("response header should carry the generated id")
	}
}

func TestRequestIDFromContextUntagged(t *testing.T) {
	if got := RequestIDFromContext(nil); got != "" {
		t.Fatalf("nil context should yield empty id, got %q", got)
	}
}
