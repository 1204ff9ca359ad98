// ABOUTME: Rate limiting middleware with fixed-window counters
// ABOUTME: Per-endpoint request limits keyed by client IP

package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// counter tracks requests within a fixed time window.
type counter struct {
	count     int
	expiresAt time.Time
}

// RateLimiter enforces a maximum number of requests per time window.
// Each unique client IP gets an independent counter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*counter
	limit   int
	window  time.Duration
}

// NewRateLimiter creates a rate limiter that allows limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*counter),
		limit:   limit,
		window:  window,
	}
}

// Allow checks whether a request for the given key should be permitted.
// Returns true if within limits, or false with the duration until the window
// resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, exists := rl.windows[key]

	// Start a new window if none exists or the current one expired.
	if !exists || !now.Before(c.expiresAt) {
		if exists {
			delete(rl.windows, key)
		}
		// Opportunistic sweep keeps the map from growing without bound.
		if len(rl.windows) > 1024 {
			for k, v := range rl.windows {
				if !now.Before(v.expiresAt) {
					delete(rl.windows, k)
				}
			}
		}
		rl.windows[key] = &counter{count: 1, expiresAt: now.Add(rl.window)}
		return true, 0
	}

	if c.count >= rl.limit {
		return false, time.Until(c.expiresAt)
	}
	c.count++
	return true, 0
}

// Limit wraps a handler with the rate limiter. Over-limit requests receive
// 429 with a Retry-After header.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, retryAfter := rl.Allow(clientIP(r))
		if !ok {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			writeJSONError(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientIP extracts the remote address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
