package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Login throttle policy: loginAttempts tries per loginWindow, per client IP.
// Credential endpoints (login, signup) are the only rate-limited surface.
const (
	loginAttempts = 5
	loginWindow   = time.Minute

	// Idle clients are forgotten after this long.
	limiterIdleTTL = 10 * time.Minute
)

// ClientLimiter tracks one token bucket per client IP.
type ClientLimiter struct {
	mu    sync.Mutex
	seen  map[string]*clientBucket
	limit rate.Limit
	burst int
}

type clientBucket struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter creates the limiter for the credential endpoints.
func NewLoginLimiter() *ClientLimiter {
	return NewClientLimiter(rate.Every(loginWindow/loginAttempts), loginAttempts)
}

// NewClientLimiter creates a per-IP limiter allowing r events per second
// with the given burst, evicting idle clients in the background.
func NewClientLimiter(r rate.Limit, burst int) *ClientLimiter {
	cl := &ClientLimiter{
		seen:  make(map[string]*clientBucket),
		limit: r,
		burst: burst,
	}
	go cl.evictIdle()
	return cl
}

// Allow reports whether the client identified by ip may proceed.
func (cl *ClientLimiter) Allow(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	entry, ok := cl.seen[ip]
	if !ok {
		entry = &clientBucket{bucket: rate.NewLimiter(cl.limit, cl.burst)}
		cl.seen[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.bucket.Allow()
}

func (cl *ClientLimiter) evictIdle() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cl.mu.Lock()
		for ip, entry := range cl.seen {
			if time.Since(entry.lastSeen) > limiterIdleTTL {
				delete(cl.seen, ip)
			}
		}
		cl.mu.Unlock()
	}
}

// Throttle wraps a handler func with the per-IP limit, answering 429 with a
// Retry-After when a client exhausts its budget.
func (cl *ClientLimiter) Throttle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cl.Allow(clientAddress(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
			return
		}
		next(w, r)
	}
}

// clientAddress resolves the client IP, trusting proxy headers when present.
func clientAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
