package ratelimit

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// ErrRateLimited is returned by Allow when the previous action was too recent.
var ErrRateLimited = errors.New("rate limited")

// SimpleRateLimiter spaces consecutive actions by a random delay between
// minDelay and maxDelay. It never sleeps: callers that come too early are
// turned away and decide for themselves what to do instead.
type SimpleRateLimiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	gap        time.Duration
	mu         sync.Mutex
	jitter     bool
	now        func() time.Time
}

func NewSimpleRateLimiter(minDelay, maxDelay time.Duration) *SimpleRateLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &SimpleRateLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		jitter:   true,
		now:      time.Now,
	}
}

// Allow admits an action if at least the delay drawn at the previous
// admission has passed, and draws the next one. Otherwise it returns
// ErrRateLimited with the remaining wait in the message.
func (r *SimpleRateLimiter) Allow() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !r.lastAction.IsZero() {
		if remaining := r.gap - now.Sub(r.lastAction); remaining > 0 {
			return fmt.Errorf("%w: next attempt in %s", ErrRateLimited, remaining.Round(time.Millisecond))
		}
	}

	r.lastAction = now
	r.gap = r.calculateDelay()
	return nil
}

// Delays returns the current bounds.
func (r *SimpleRateLimiter) Delays() (time.Duration, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minDelay, r.maxDelay
}

func (r *SimpleRateLimiter) calculateDelay() time.Duration {
	if !r.jitter || r.maxDelay <= r.minDelay {
		return r.minDelay
	}

	delta := r.maxDelay - r.minDelay
	jitter := time.Duration(rand.Int63n(int64(delta)))
	return r.minDelay + jitter
}

// AdaptiveRateLimiter backs off after repeated failures and relaxes back
// toward its base delays after a run of successes.
type AdaptiveRateLimiter struct {
	*SimpleRateLimiter
	baseMin       time.Duration
	baseMax       time.Duration
	ceiling       time.Duration
	errorCount    int
	successCount  int
	maxErrorCount int
	backoffFactor float64
}

func NewAdaptiveRateLimiter(minDelay, maxDelay time.Duration) *AdaptiveRateLimiter {
	simple := NewSimpleRateLimiter(minDelay, maxDelay)
	return &AdaptiveRateLimiter{
		SimpleRateLimiter: simple,
		baseMin:           simple.minDelay,
		baseMax:           simple.maxDelay,
		ceiling:           2 * time.Minute,
		maxErrorCount:     3,
		backoffFactor:     1.5,
	}
}

func (a *AdaptiveRateLimiter) RecordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successCount++
	a.errorCount = 0

	if a.successCount > 5 {
		a.minDelay = max(time.Duration(float64(a.minDelay)*0.9), a.baseMin)
		a.maxDelay = max(time.Duration(float64(a.maxDelay)*0.9), a.baseMax)
		a.successCount = 0
	}
}

func (a *AdaptiveRateLimiter) RecordError() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errorCount++
	a.successCount = 0

	if a.errorCount >= a.maxErrorCount {
		// a zero base still needs somewhere to grow from
		newMin := max(time.Duration(float64(a.minDelay)*a.backoffFactor), time.Second)
		newMax := max(time.Duration(float64(a.maxDelay)*a.backoffFactor), newMin)

		a.minDelay = min(newMin, a.ceiling/2)
		a.maxDelay = min(newMax, a.ceiling)
		a.gap = a.calculateDelay()
		a.errorCount = 0
	}
}
