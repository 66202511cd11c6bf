package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration for a fixed window.
type RateLimitConfig struct {
	Window  time.Duration
	Max     int
	Message string
}

// DefaultRateLimitConfig returns the default per-IP rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:  15 * time.Minute,
		Max:     200,
		Message: "Too many requests from this IP, please try again later.",
	}
}

// LoginRateLimitConfig returns the stricter settings applied to login and
// OTP endpoints.
func LoginRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:  15 * time.Minute,
		Max:     50,
		Message: "Too many login attempts from this IP, please try again later.",
	}
}

// window tracks request counts for one key within the current fixed window.
type window struct {
	start time.Time
	count int
}

// rateLimiterStore holds per-key fixed windows. Expired windows are swept
// lazily so the map does not grow with every IP ever seen.
type rateLimiterStore struct {
	windows   map[string]*window
	mu        sync.Mutex
	config    RateLimitConfig
	now       func() time.Time
	lastSweep time.Time
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	return &rateLimiterStore{
		windows: make(map[string]*window),
		config:  cfg,
		now:     time.Now,
	}
}

// sweep drops windows whose period has elapsed. Caller holds the lock. At
// most one sweep runs per window length.
func (s *rateLimiterStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.config.Window {
		return
	}
	s.lastSweep = now
	for key, w := range s.windows {
		if now.Sub(w.start) >= s.config.Window {
			delete(s.windows, key)
		}
	}
}

// allow records a request for key and reports whether it is within the limit.
// It also returns the remaining allowance and seconds until the window resets.
func (s *rateLimiterStore) allow(key string) (ok bool, remaining int, retryAfter int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	w, exists := s.windows[key]
	if !exists || now.Sub(w.start) >= s.config.Window {
		w = &window{start: now}
		s.windows[key] = w
	}

	resetIn := int(s.config.Window.Seconds() - now.Sub(w.start).Seconds())
	if resetIn < 1 {
		resetIn = 1
	}

	if w.count >= s.config.Max {
		return false, 0, resetIn
	}

	w.count++
	return true, s.config.Max - w.count, resetIn
}

// RateLimit returns a per-IP fixed-window rate limiting middleware.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newRateLimiterStore(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()

			ok, remaining, retryAfter := store.allow(key)
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, cfg.Message)
			}

			return next(c)
		}
	}
}
