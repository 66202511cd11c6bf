package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	cfg := RateLimitConfig{
		Window:  time.Minute,
		Max:     5,
		Message: "too many requests",
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "5" {
			t.Errorf("request %d: expected X-RateLimit-Limit '5', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	cfg := RateLimitConfig{
		Window:  time.Minute,
		Max:     2,
		Message: "too many requests",
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	// Third request exceeds the window max
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on limited response")
	}
}

func TestRateLimiterStore_WindowReset(t *testing.T) {
	cfg := RateLimitConfig{
		Window: 15 * time.Minute,
		Max:    2,
	}
	store := newRateLimiterStore(cfg)

	current := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	for i := 0; i < 2; i++ {
		if ok, _, _ := store.allow("1.2.3.4"); !ok {
			t.Fatalf("request %d: expected allow", i+1)
		}
	}
	if ok, _, _ := store.allow("1.2.3.4"); ok {
		t.Fatal("expected third request to be limited")
	}

	// Advance past the window; counter resets
	current = current.Add(15*time.Minute + time.Second)
	if ok, _, _ := store.allow("1.2.3.4"); !ok {
		t.Fatal("expected allow after window reset")
	}
}

func TestRateLimiterStore_EvictsExpiredWindows(t *testing.T) {
	cfg := RateLimitConfig{
		Window: 15 * time.Minute,
		Max:    10,
	}
	store := newRateLimiterStore(cfg)

	current := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	for _, ip := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		store.allow(ip)
	}
	if len(store.windows) != 3 {
		t.Fatalf("windows = %d, want 3", len(store.windows))
	}

	// A request after the window elapses prunes the stale entries instead
	// of letting the map grow with every IP ever seen.
	current = current.Add(15*time.Minute + time.Second)
	store.allow("4.4.4.4")
	if len(store.windows) != 1 {
		t.Errorf("windows after sweep = %d, want 1", len(store.windows))
	}
	if _, kept := store.windows["4.4.4.4"]; !kept {
		t.Error("active window evicted by sweep")
	}
}

func TestRateLimiterStore_PerKeyIsolation(t *testing.T) {
	cfg := RateLimitConfig{
		Window: time.Minute,
		Max:    1,
	}
	store := newRateLimiterStore(cfg)

	if ok, _, _ := store.allow("1.1.1.1"); !ok {
		t.Fatal("expected first key to be allowed")
	}
	if ok, _, _ := store.allow("1.1.1.1"); ok {
		t.Fatal("expected first key to be limited")
	}
	if ok, _, _ := store.allow("2.2.2.2"); !ok {
		t.Fatal("expected second key to be unaffected")
	}
}
