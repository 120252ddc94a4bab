package ratelimiter

import "sync"

// Keyed maintains one independent limiter per key, created on first use.
// Keys are user IDs here: one user exhausting their budget must not starve
// anyone else.
type Keyed struct {
	newLimiter func() RateLimiter
	limiters   map[string]RateLimiter
	mutex      sync.Mutex
}

// NewKeyed creates a Keyed limiter; newLimiter builds the limiter for each
// previously unseen key.
func NewKeyed(newLimiter func() RateLimiter) *Keyed {
	return &Keyed{
		newLimiter: newLimiter,
		limiters:   make(map[string]RateLimiter),
	}
}

// Allow reports whether the request for the given key is admitted.
func (k *Keyed) Allow(key string) bool {
	k.mutex.Lock()
	limiter, ok := k.limiters[key]
	if !ok {
		limiter = k.newLimiter()
		k.limiters[key] = limiter
	}
	k.mutex.Unlock()

	return limiter.Allow()
}
