package auth

import (
	"testing"
	"time"
)

func newTestThrottle(start time.Time) (*LoginThrottle, *time.Time) {
	current := start
	th := NewLoginThrottle()
	th.now = func() time.Time { return current }
	return th, &current
}

func TestLoginThrottle_BlocksAfterMaxAttempts(t *testing.T) {
	th, _ := newTestThrottle(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	key := th.Key("healthcare", "EMP-001")

	for i := 0; i < ThrottleMaxAttempts; i++ {
		if blocked, _ := th.Check(key); blocked {
			t.Fatalf("attempt %d: expected not blocked", i+1)
		}
		th.Record(key)
	}

	blocked, minutes := th.Check(key)
	if !blocked {
		t.Fatal("expected account to be blocked after 5 failed attempts")
	}
	if minutes < 1 || minutes > 15 {
		t.Errorf("expected minutes left in (0,15], got %d", minutes)
	}
}

func TestLoginThrottle_SlidingWindowExpiry(t *testing.T) {
	th, current := newTestThrottle(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	key := th.Key("healthcare", "EMP-001")

	for i := 0; i < ThrottleMaxAttempts; i++ {
		th.Record(key)
	}
	if blocked, _ := th.Check(key); !blocked {
		t.Fatal("expected blocked")
	}

	// 14 minutes later the attempts are still within the window
	*current = current.Add(14 * time.Minute)
	if blocked, _ := th.Check(key); !blocked {
		t.Fatal("expected still blocked at 14 minutes")
	}

	// Past 15 minutes they age out
	*current = current.Add(2 * time.Minute)
	if blocked, _ := th.Check(key); blocked {
		t.Fatal("expected unblocked after window expiry")
	}
}

func TestLoginThrottle_MinutesLeftDecreases(t *testing.T) {
	th, current := newTestThrottle(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	key := th.Key("admin", "sysadmin")

	for i := 0; i < ThrottleMaxAttempts; i++ {
		th.Record(key)
	}

	_, initial := th.Check(key)
	*current = current.Add(10 * time.Minute)
	_, later := th.Check(key)

	if later >= initial {
		t.Errorf("expected minutes left to decrease: initial=%d later=%d", initial, later)
	}
	if later != 5 {
		t.Errorf("expected 5 minutes left after 10 minutes, got %d", later)
	}
}

func TestLoginThrottle_ClearOnSuccess(t *testing.T) {
	th, _ := newTestThrottle(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	key := th.Key("healthcare", "EMP-001")

	for i := 0; i < ThrottleMaxAttempts; i++ {
		th.Record(key)
	}
	if blocked, _ := th.Check(key); !blocked {
		t.Fatal("expected blocked")
	}

	th.Clear(key)
	if blocked, _ := th.Check(key); blocked {
		t.Fatal("expected unblocked after clear")
	}
}

func TestLoginThrottle_KeyCaseInsensitive(t *testing.T) {
	th := NewLoginThrottle()

	upper := th.Key("healthcare", "EMP-001")
	lower := th.Key("healthcare", "emp-001")
	if upper != lower {
		t.Errorf("expected identical keys, got %q and %q", upper, lower)
	}
}

func TestLoginThrottle_ScopesIsolated(t *testing.T) {
	th, _ := newTestThrottle(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	staffKey := th.Key("healthcare", "alpha")
	adminKey := th.Key("admin", "alpha")

	for i := 0; i < ThrottleMaxAttempts; i++ {
		th.Record(staffKey)
	}

	if blocked, _ := th.Check(staffKey); !blocked {
		t.Fatal("expected staff key blocked")
	}
	if blocked, _ := th.Check(adminKey); blocked {
		t.Fatal("expected admin key unaffected")
	}
}
