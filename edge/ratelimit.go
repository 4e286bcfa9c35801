package edge

import (
	"sync"
	"time"
)

// revalidateLimiter is a token bucket bounding background revalidations so a
// burst of cache hits cannot hammer the origin. Revalidation is best-effort;
// when the bucket is empty the refresh is skipped, not queued.
type revalidateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// newRevalidateLimiter creates a limiter allowing perMinute refreshes, with
// a burst of the same size. A zero limit disables revalidation entirely.
func newRevalidateLimiter(perMinute int) *revalidateLimiter {
	rpm := float64(perMinute)
	if rpm < 0 {
		rpm = 0
	}
	return &revalidateLimiter{
		tokens:     rpm, // start with a full bucket
		maxTokens:  rpm,
		refillRate: rpm / 60.0,
		lastRefill: time.Now(),
	}
}

// allow consumes a token if one is available.
func (l *revalidateLimiter) allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.tokens += elapsed * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now

	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}
