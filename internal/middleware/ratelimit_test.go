package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/verigate/verigate/internal/middleware"
)

func doRequest(t *testing.T, handler http.Handler, remoteAddr string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verification/verify-document", http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 3)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := range 3 {
		if code := doRequest(t, h, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
}

func TestRateLimiter_RejectsBeyondBurst(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if code := doRequest(t, h, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", code)
	}
	if code := doRequest(t, h, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", code)
	}
}

func TestRateLimiter_TracksIPsIndependently(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest(t, h, "10.0.0.1:1234")
	if code := doRequest(t, h, "10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("different IP must not be throttled, got %d", code)
	}
	if rl.Len() != 2 {
		t.Fatalf("expected 2 tracked buckets, got %d", rl.Len())
	}
}
