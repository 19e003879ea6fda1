package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/brokerapp/server/internal/clock"
)

const maxTrackedKeys = 10000

// RateLimiter implements an in-memory sliding window limiter. Keys are held
// in a bounded LRU and dropped once their window has passed.
type RateLimiter struct {
	mu       sync.Mutex
	requests *expirable.LRU[string, []time.Time]
	window   time.Duration
	maxReqs  int
	clock    clock.Clocker
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(window time.Duration, maxReqs int, clk clock.Clocker) *RateLimiter {
	return &RateLimiter{
		requests: expirable.NewLRU[string, []time.Time](maxTrackedKeys, nil, window),
		window:   window,
		maxReqs:  maxReqs,
		clock:    clk,
	}
}

// Allow checks if a request is allowed for the given key
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	cutoff := now.Add(-rl.window)

	reqs, _ := rl.requests.Get(key)

	filtered := make([]time.Time, 0, len(reqs)+1)
	for _, t := range reqs {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}

	if len(filtered) >= rl.maxReqs {
		rl.requests.Add(key, filtered)
		return false
	}

	filtered = append(filtered, now)
	rl.requests.Add(key, filtered)

	return true
}

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(limiter *RateLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFunc(r)) {
				respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIPKey extracts the client IP for rate limiting. chi's RealIP has
// already folded proxy headers into RemoteAddr.
func GetIPKey(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return "ip:" + addr
}
