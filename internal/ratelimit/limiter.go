// Package ratelimit enforces independent per-scope request budgets over a
// fixed window, keyed by caller identity.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter answers allow/deny for a composed key. The window and budget are
// fixed at construction; callers treat the window purely as a retry hint.
type Limiter interface {
	Allow(key string, budget int) bool
}

// KeyedLimiter keeps one token bucket per key, refilled over the window.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	window   time.Duration
}

// NewKeyedLimiter creates a limiter over the given window.
func NewKeyedLimiter(window time.Duration) *KeyedLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		window:   window,
	}
}

// Allow consumes one slot of the key's budget if available.
func (l *KeyedLimiter) Allow(key string, budget int) bool {
	if budget <= 0 {
		return false
	}
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(budget)/l.window.Seconds()), budget)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
