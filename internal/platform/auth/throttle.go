package auth

import (
	"math"
	"strings"
	"sync"
	"time"
)

// Login throttle defaults: at most 5 failed attempts per account within a
// sliding 15-minute window.
const (
	ThrottleWindow      = 15 * time.Minute
	ThrottleMaxAttempts = 5
)

// LoginThrottle tracks failed login attempts per account key and blocks
// further attempts once the window limit is reached. Keys are case-insensitive
// and scoped by audience (e.g. "healthcare:EMP-001" and "admin:root" count
// separately).
type LoginThrottle struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	window   time.Duration
	max      int
	now      func() time.Time
}

func NewLoginThrottle() *LoginThrottle {
	return &LoginThrottle{
		attempts: make(map[string][]time.Time),
		window:   ThrottleWindow,
		max:      ThrottleMaxAttempts,
		now:      time.Now,
	}
}

// Key builds the throttle key for an account. The identifier is lowercased so
// "EMP-001" and "emp-001" share a counter.
func (t *LoginThrottle) Key(scope, identifier string) string {
	return strings.ToLower(scope + ":" + identifier)
}

// Check reports whether the account is currently blocked, and if so how many
// minutes remain until the oldest counted attempt falls out of the window.
func (t *LoginThrottle) Check(key string) (blocked bool, minutesLeft int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := t.prune(key)
	if len(recent) < t.max {
		return false, 0
	}

	elapsed := t.now().Sub(recent[0])
	left := int(math.Ceil((t.window - elapsed).Minutes()))
	if left < 1 {
		left = 1
	}
	return true, left
}

// Record registers a failed attempt for the account.
func (t *LoginThrottle) Record(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := t.prune(key)
	t.attempts[key] = append(recent, t.now())
}

// Clear removes all attempts for the account. Called on successful login.
func (t *LoginThrottle) Clear(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, key)
}

// prune drops attempts older than the window and returns what remains. Caller
// must hold the mutex.
func (t *LoginThrottle) prune(key string) []time.Time {
	cutoff := t.now().Add(-t.window)
	var recent []time.Time
	for _, at := range t.attempts[key] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	if len(recent) == 0 {
		delete(t.attempts, key)
	} else {
		t.attempts[key] = recent
	}
	return recent
}
