package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	api "github.com/maure-club/strategieclub/internal/adapter/http"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuthRejectsMissingToken(t *testing.T) {
	handler := api.BearerAuth("geheim")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debates", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBearerAuthAcceptsToken(t *testing.T) {
	handler := api.BearerAuth("geheim")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debates", http.NoBody)
	req.Header.Set("Authorization", "Bearer geheim")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBearerAuthSkipsHealth(t *testing.T) {
	handler := api.BearerAuth("geheim")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBearerAuthDisabledWhenEmpty(t *testing.T) {
	handler := api.BearerAuth("")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debates", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	handler := api.RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); len(got) != 32 {
		t.Fatalf("expected generated 32-char request id, got %q", got)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	handler := api.RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-Request-ID", "vorhanden")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "vorhanden" {
		t.Fatalf("expected preserved request id, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := api.CORS("*")(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/debates", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}
}
