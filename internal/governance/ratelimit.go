package governance

import (
	"sync"
	"time"
)

// RateLimiterConfig bounds how often the completion endpoint is called.
type RateLimiterConfig struct {
	// RequestsPerSecond is the refill rate. Values <= 0 disable limiting.
	RequestsPerSecond float64
	// BurstSize is the bucket capacity; defaults to ceil(RequestsPerSecond).
	BurstSize int
}

// RateLimiter is a token bucket. A nil or disabled limiter allows everything.
type RateLimiter struct {
	mu         sync.Mutex
	rate       float64
	capacity   float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// NewRateLimiter returns nil when cfg disables limiting.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := float64(cfg.BurstSize)
	if burst <= 0 {
		burst = cfg.RequestsPerSecond
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimiter{
		rate:       cfg.RequestsPerSecond,
		capacity:   burst,
		tokens:     burst,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Allow consumes one token if available.
func (rl *RateLimiter) Allow() bool {
	if rl == nil {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens += now.Sub(rl.lastRefill).Seconds() * rl.rate
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}
