package ratelimiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket over golang.org/x/time/rate.
type RateLimiter struct {
	limiter *rate.Limiter
	burst   int
	rps     int
}

// NewRateLimiter creates a limiter that refills one token every
// ratePerToken, holding at most burst tokens.
func NewRateLimiter(ratePerToken time.Duration, burst int) *RateLimiter {
	rps := int(time.Second / ratePerToken)
	return NewRateLimiterFromRPS(rps, burst)
}

func NewRateLimiterFromRPS(rps int, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		burst:   burst,
		rps:     rps,
	}
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

func (rl *RateLimiter) TryAcquire() bool {
	return rl.limiter.Allow()
}

// GetStats returns an estimate of the tokens left, the bucket size and the
// refill interval.
func (rl *RateLimiter) GetStats() (available, capacity int, rateDuration time.Duration) {
	available = int(rl.limiter.Tokens())
	if available < 0 {
		available = 0
	}
	return available, rl.burst, time.Second / time.Duration(rl.rps)
}

var (
	sharedMu sync.Mutex
	shared   = map[string]*RateLimiter{}
)

// Shared returns one limiter per endpoint and settings, so every client
// talking to the same node draws from the same bucket.
func Shared(endpoint string, rps, burst int) *RateLimiter {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	key := fmt.Sprintf("%s_%d_%d", endpoint, rps, burst)
	if l, ok := shared[key]; ok {
		return l
	}
	l := NewRateLimiterFromRPS(rps, burst)
	shared[key] = l
	return l
}
