package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllow_WindowResets(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.1.1.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("fourth request should be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("other clients are independent")
	}

	*now = now.Add(61 * time.Second)
	if !rl.Allow("1.1.1.1") {
		t.Fatal("window should reset after a minute")
	}
	if got := rl.GetMetrics().RejectedRequests; got != 1 {
		t.Fatalf("RejectedRequests = %d, want 1", got)
	}
}

func TestAllow_RejectedRequestsDoNotExtendWindow(t *testing.T) {
	rl, now := newTestLimiter(t, 1)

	rl.Allow("1.1.1.1")
	for i := 0; i < 5; i++ {
		*now = now.Add(10 * time.Second)
		rl.Allow("1.1.1.1")
	}
	*now = now.Add(11 * time.Second)
	if !rl.Allow("1.1.1.1") {
		t.Fatal("window is anchored at the first request")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 10)
	rl.Allow("1.1.1.1")
	*now = now.Add(11 * time.Minute)
	rl.Allow("2.2.2.2")

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("removed %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Fatalf("ActiveClients = %d", rl.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "9.9.9.9" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "61" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}
