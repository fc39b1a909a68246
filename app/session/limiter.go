package session

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxLimiters = 10000

// limiterCache keeps one login rate limiter per client address
type limiterCache struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

func newLimiterCache(rps float64, burst int, now func() time.Time) *limiterCache {
	return &limiterCache{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		now:      now,
	}
}

func (lc *limiterCache) allow(key string) bool {
	lc.mu.Lock()
	limiter, ok := lc.limiters[key]
	if !ok {
		if len(lc.limiters) >= maxLimiters {
			lc.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(lc.rate, lc.burst)
		lc.limiters[key] = limiter
	}
	lc.mu.Unlock()

	return limiter.AllowN(lc.now(), 1)
}
