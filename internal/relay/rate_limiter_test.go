package relay

import (
	"testing"
	"time"
)

// TestRateLimiterBurst verifies that the bucket allows exactly the burst
// size before throttling.
func TestRateLimiterBurst(t *testing.T) {
	rl := newRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.allow() {
			t.Fatalf("Expected event %d within burst to be allowed", i+1)
		}
	}
	if rl.allow() {
		t.Error("Expected event beyond burst to be throttled")
	}
}

// TestRateLimiterRefill verifies that tokens come back after the refill
// interval elapses.
func TestRateLimiterRefill(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)

	if !rl.allow() {
		t.Fatal("Expected first event to be allowed")
	}
	if rl.allow() {
		t.Error("Expected bucket to be empty")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.allow() {
		t.Error("Expected bucket to refill after the interval")
	}
}

// TestRateLimiterDefaults verifies that non-positive parameters fall back
// to safe values instead of a stuck limiter.
func TestRateLimiterDefaults(t *testing.T) {
	rl := newRateLimiter(0, 0)
	if !rl.allow() {
		t.Error("Expected sanitized limiter to allow at least one event")
	}
}
