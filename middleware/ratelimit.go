// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/danielhkuo/compass/auth"
)

// idle clients are forgotten after this long
const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket keyed by the hashed client IP.
// A zero limit disables it.
type RateLimiter struct {
	// TrustProxy keys clients by X-Forwarded-For / X-Real-IP. Only set it
	// when a proxy in front of the server overwrites those headers.
	TrustProxy bool

	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	salt      string
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(perSecond float64, burst int, salt string) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		salt:     salt,
		now:      time.Now,
	}
}

// Enabled reports whether requests are limited at all.
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.limit > 0
}

// Allow spends one token for the client key.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > visitorTTL {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) clientKey(r *http.Request) string {
	ip := PeerIP(r)
	if rl.TrustProxy {
		ip = GetClientIP(r)
	}
	return auth.HashIP(ip, rl.salt)
}

// Limit wraps a handler, rejecting clients over their budget with 429.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	if !rl.Enabled() {
		return next
	}
	retryAfter := strconv.Itoa(max(1, int(1/float64(rl.limit))))
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.clientKey(r)) {
			w.Header().Set("Retry-After", retryAfter)
			ErrorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}
