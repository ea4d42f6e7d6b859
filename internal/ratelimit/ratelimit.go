package ratelimit

import (
	"sync"
	"time"
)

// pruneThreshold bounds the lastCall map; past it, expired keys are dropped.
const pruneThreshold = 4096

// Limiter enforces a minimum delay between calls sharing a key, e.g. repeated
// apply attempts by one applicant to one job.
type Limiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time
	minDelay time.Duration
	now      func() time.Time
}

// NewLimiter creates a limiter. A zero minDelay allows every call.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
		now:      time.Now,
	}
}

// Wait reports whether a call for key may proceed. When it may not, it
// returns how long the caller should wait. Wait does not record the call.
func (r *Limiter) Wait(key string) (time.Duration, bool) {
	if r.minDelay <= 0 {
		return 0, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.lastCall[key]; ok {
		if elapsed := r.now().Sub(last); elapsed < r.minDelay {
			return r.minDelay - elapsed, false
		}
	}
	return 0, true
}

// Record marks a completed call for key. Only calls that took effect are
// recorded, so refused attempts never hold the slot.
func (r *Limiter) Record(key string) {
	if r.minDelay <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if len(r.lastCall) >= pruneThreshold {
		r.prune(now)
	}
	r.lastCall[key] = now
}

func (r *Limiter) prune(now time.Time) {
	for k, t := range r.lastCall {
		if now.Sub(t) >= r.minDelay {
			delete(r.lastCall, k)
		}
	}
}
