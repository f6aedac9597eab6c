// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package server

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
)

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained request rate per IP. Zero disables limiting.
	RequestsPerSecond float64
	// Burst is the maximum burst size per IP.
	Burst int
}

// Validate checks that the RateLimitConfig is valid.
func (c *RateLimitConfig) Validate() error {
	if c.RequestsPerSecond > 0 && c.Burst <= 0 {
		return wberr.Errorf(wberr.CodeServerConfigInvalid,
			"rate limit burst must be positive when rate is set (got burst=%d, rate=%g)",
			c.Burst, c.RequestsPerSecond)
	}
	if c.RequestsPerSecond < 0 {
		return wberr.Errorf(wberr.CodeServerConfigInvalid,
			"rate limit requests per second must not be negative (got %g)",
			c.RequestsPerSecond)
	}
	return nil
}

type visitorEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter enforces per-IP rate limits with one token bucket per visitor
// IP. Its middleware works standalone; cleanup is a separate loop the server
// runs only while it is serving.
type rateLimiter struct {
	cfg      RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*visitorEntry
}

// newRateLimiter returns nil when cfg.RequestsPerSecond is zero, which
// disables limiting entirely.
func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	return &rateLimiter{cfg: cfg, visitors: make(map[string]*visitorEntry)}
}

// cleanup periodically drops entries for IPs that have gone quiet so the map
// cannot grow without bound. Exits when done closes.
func (l *rateLimiter) cleanup(done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			const staleThreshold = 10 * time.Minute
			now := time.Now()
			for ip, v := range l.visitors {
				if now.Sub(v.lastSeen) > staleThreshold {
					delete(l.visitors, ip)
				}
			}
			l.mu.Unlock()
		case <-done:
			return
		}
	}
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Strip the port so the limit applies per IP, not per connection.
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		l.mu.Lock()
		v, exists := l.visitors[host]
		if !exists {
			v = &visitorEntry{
				limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst),
			}
			l.visitors[host] = v
		}
		v.lastSeen = time.Now()
		allowed := v.limiter.Allow()
		l.mu.Unlock()

		if !allowed {
			slog.Warn("rate limit exceeded", "ip", host, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
