// ABOUTME: Per-tier request quotas for the web tier
// ABOUTME: Auth routes count per client address, upload and API routes per signed-in user

package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// quota is one caller's usage inside the current window.
type quota struct {
	used    int
	resetAt time.Time
}

// RateLimiter grants each key limit requests per window. Windows are fixed:
// a key's window opens on its first request and its count restarts once
// resetAt has passed.
type RateLimiter struct {
	mu        sync.Mutex
	quotas    map[string]*quota
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter returns a limiter allowing limit requests per key per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		quotas: make(map[string]*quota),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow counts one request against key. When the quota is spent it returns
// false and how long until the key's window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepIfDue(now)

	q, ok := rl.quotas[key]
	if !ok || !now.Before(q.resetAt) {
		rl.quotas[key] = &quota{used: 1, resetAt: now.Add(rl.window)}
		return true, 0
	}
	if q.used < rl.limit {
		q.used++
		return true, 0
	}
	return false, q.resetAt.Sub(now)
}

// sweepIfDue drops finished windows at most once per window length, so the
// map holds only callers seen during roughly the last two windows.
// Caller holds rl.mu.
func (rl *RateLimiter) sweepIfDue(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	for k, q := range rl.quotas {
		if !now.Before(q.resetAt) {
			delete(rl.quotas, k)
		}
	}
	rl.lastSweep = now
}

// tracked reports how many keys currently hold a window.
func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.quotas)
}

// ClientIP keys a request by caller address. The leftmost X-Forwarded-For
// entry wins when it parses as an IP, since the web tier runs behind a
// reverse proxy that sets it.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return "ip:" + ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// UserOrIP keys a request by the Drive user id of the session Auth attached,
// so renewed session cookies keep sharing one quota. Requests without a
// session fall back to ClientIP.
func UserOrIP(r *http.Request) string {
	if s := GetSession(r); s != nil && s.User.ID != 0 {
		return "user:" + strconv.FormatInt(s.User.ID, 10)
	}
	return ClientIP(r)
}

// rateLimitBody extends the usual error shape with the wait in seconds.
type rateLimitBody struct {
	Error      string `json:"error"`
	Code       int    `json:"code"`
	RetryAfter int    `json:"retry_after"`
}

// RateLimit returns middleware charging each request to keyFunc(r) on limiter.
// A nil limiter or keyFunc disables it, as does an empty key.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if limiter == nil || keyFunc == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next(w, r)
				return
			}

			allowed, wait := limiter.Allow(key)
			if allowed {
				next(w, r)
				return
			}

			// round up so clients never retry inside the window
			seconds := int((wait + time.Second - 1) / time.Second)
			slog.Warn("Rate limit exceeded", "key", key, "path", r.URL.Path, "retry_after", seconds)

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(rateLimitBody{
				Error:      "Rate limit exceeded",
				Code:       http.StatusTooManyRequests,
				RetryAfter: seconds,
			})
		}
	}
}
