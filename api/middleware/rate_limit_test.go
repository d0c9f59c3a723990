package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/burgnice/storefront/pkg/config"
)

func TestRateLimitPerSession(t *testing.T) {
	mw := RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(sessionID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req = req.WithContext(WithSessionID(req.Context(), sessionID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("sid-1"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, code)
		}
	}
	if code := send("sid-1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := send("sid-2"); code != http.StatusOK {
		t.Fatalf("other sessions must keep their own bucket, got %d", code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	mw := RateLimit(config.RateLimitConfig{}, nil)
	calls := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	for i := 0; i < 50; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if calls != 50 {
		t.Fatalf("expected all requests through, got %d", calls)
	}
}

func TestLimiterSetEvictsIdleEntries(t *testing.T) {
	set := newLimiterSet(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	now := time.Unix(1_700_000_000, 0)
	set.now = func() time.Time { return now }

	set.allow("a")
	now = now.Add(2 * limiterIdleTTL)
	set.allow("b")

	if _, ok := set.entries["a"]; ok {
		t.Fatalf("expected idle limiter evicted")
	}
	if _, ok := set.entries["b"]; !ok {
		t.Fatalf("expected fresh limiter kept")
	}
}
