package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Sliding-window rate limiter keyed by client IP
type rateLimiter struct {
	mutex   sync.Mutex
	seen    map[string][]time.Time
	limit   int
	window  time.Duration
	lastGC  time.Time
	gcEvery time.Duration
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		seen:    make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		lastGC:  time.Now(),
		gcEvery: window,
	}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	// Drop expired entries for this key, pruning in place
	hits := rl.seen[key]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.seen[key] = kept
		return false
	}

	rl.seen[key] = append(kept, now)

	// Periodically forget idle clients so the map does not grow unbounded
	if now.Sub(rl.lastGC) > rl.gcEvery {
		for k, v := range rl.seen {
			if len(v) == 0 || !v[len(v)-1].After(cutoff) {
				delete(rl.seen, k)
			}
		}
		rl.lastGC = now
	}

	return true
}

// RateLimit limits each client IP to 100 requests per 15 minutes
func RateLimit() gin.HandlerFunc {
	return RateLimitWith(100, 15*time.Minute)
}

// RateLimitWith returns a rate limiting middleware with a custom budget
func RateLimitWith(limit int, window time.Duration) gin.HandlerFunc {
	limiter := newRateLimiter(limit, window)

	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
