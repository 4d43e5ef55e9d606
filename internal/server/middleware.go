package server

import (
	"net/http"
	"sync"
	"time"
)

// SecurityConfig bounds the per-request work the API will accept. The
// spectral queries scale with operator dimension and grid size, so
// unbounded requests would let a single client exhaust the host.
type SecurityConfig struct {
	// MaxSites caps the operator dimension a request may ask for.
	MaxSites int
	// MaxPoints caps the output energy grid size.
	MaxPoints int
	// MinBroadening floors the requested resolution. The number of
	// expansion moments grows inversely with broadening, so a tiny value
	// translates directly into runaway computation.
	MinBroadening float64
	// MaxNumRandom caps the stochastic realizations per DOS request.
	MaxNumRandom int
	// MaxBodyBytes limits the request body size.
	MaxBodyBytes int64
}

// DefaultSecurityConfig returns limits suitable for a shared host.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxSites:      1 << 20,
		MaxPoints:     100000,
		MinBroadening: 1e-4,
		MaxNumRandom:  256,
		MaxBodyBytes:  1 << 20,
	}
}

// SecurityMiddleware sets standard security headers and bounds the body size.
func SecurityMiddleware(sc SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, sc.MaxBodyBytes)
		}
		next(w, r)
	}
}

// RateLimiterConfig configures the token-bucket rate limiter.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained request rate allowed per client.
	RequestsPerSecond float64
	// Burst is the number of requests a client may issue at once.
	Burst int
	// CleanupInterval controls how often idle client buckets are dropped.
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig returns a limiter sized for interactive use.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		CleanupInterval:   5 * time.Minute,
	}
}

// RateLimiter implements a per-client token bucket keyed by remote address.
type RateLimiter struct {
	mu          sync.Mutex
	cfg         RateLimiterConfig
	buckets     map[string]*bucket
	lastCleanup time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		cfg:         cfg,
		buckets:     make(map[string]*bucket),
		lastCleanup: time.Now(),
	}
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastCleanup) > rl.cfg.CleanupInterval {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > rl.cfg.CleanupInterval {
				delete(rl.buckets, k)
			}
		}
		rl.lastCleanup = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.cfg.Burst)}
		rl.buckets[key] = b
	} else {
		b.tokens += now.Sub(b.lastSeen).Seconds() * rl.cfg.RequestsPerSecond
		if b.tokens > float64(rl.cfg.Burst) {
			b.tokens = float64(rl.cfg.Burst)
		}
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RateLimitMiddleware rejects requests exceeding the per-client rate.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
