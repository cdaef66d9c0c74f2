package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket shared by every client of one upstream quota.
type RateLimiter struct {
	mu             sync.Mutex
	tokens         int
	maxTokens      int
	refillInterval time.Duration
	lastRefill     time.Time
	now            func() time.Time
}

// NewRateLimiter allows maxTokens calls per refillInterval, refilling one token at a time.
func NewRateLimiter(maxTokens int, refillInterval time.Duration) *RateLimiter {
	if maxTokens <= 0 {
		maxTokens = 1
	}
	return &RateLimiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
		now:            time.Now,
	}
}

// newsAPILimiter is shared by both NewsAPI variants, which draw on the same API key.
var newsAPILimiter = NewRateLimiter(5, time.Second)

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay, ok := r.take()
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available reports the tokens left right now.
func (r *RateLimiter) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

// take consumes a token, or returns how long until the next one is due.
func (r *RateLimiter) take() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens > 0 {
		r.tokens--
		return 0, true
	}
	delay := r.lastRefill.Add(r.refillInterval).Sub(r.now())
	if delay <= 0 {
		delay = time.Millisecond
	}
	return delay, false
}

func (r *RateLimiter) refill() {
	elapsed := r.now().Sub(r.lastRefill)
	n := int(elapsed / r.refillInterval)
	if n <= 0 {
		return
	}
	r.tokens = min(r.tokens+n, r.maxTokens)
	r.lastRefill = r.lastRefill.Add(time.Duration(n) * r.refillInterval)
}
