package security

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a request exceeds the rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// Rate limiter buckets used by the gateway.
const (
	BucketRequest     = "request"
	BucketAuthFailure = "auth_failure"
)

const (
	maxTrackedClients = 1024
	clientTTL         = 5 * time.Minute
)

// RateLimitConfig holds configurable per-minute limits.
type RateLimitConfig struct {
	RequestsPerMin     int `yaml:"requests_per_min"`
	AuthFailuresPerMin int `yaml:"auth_failures_per_min"`
}

func rateLimitConfigDefaults() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMin:     600,
		AuthFailuresPerMin: 10,
	}
}

// RateLimiter keeps one token bucket per kind and client. A bucket holds a
// full minute's budget and refills continuously. Idle clients are forgotten
// after a few minutes; the least recently seen are dropped first when too
// many are tracked.
type RateLimiter struct {
	mu    sync.Mutex
	kinds map[string]*clientBuckets
	now   func() time.Time
}

type clientBuckets struct {
	limit   rate.Limit
	burst   int
	clients *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter creates a rate limiter with the given config.
// Zero-value fields in cfg are replaced with defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return newRateLimiter(cfg, clientTTL)
}

func newRateLimiter(cfg RateLimitConfig, ttl time.Duration) *RateLimiter {
	defaults := rateLimitConfigDefaults()
	if cfg.RequestsPerMin <= 0 {
		cfg.RequestsPerMin = defaults.RequestsPerMin
	}
	if cfg.AuthFailuresPerMin <= 0 {
		cfg.AuthFailuresPerMin = defaults.AuthFailuresPerMin
	}

	return &RateLimiter{
		now: time.Now,
		kinds: map[string]*clientBuckets{
			BucketRequest:     newClientBuckets(cfg.RequestsPerMin, ttl),
			BucketAuthFailure: newClientBuckets(cfg.AuthFailuresPerMin, ttl),
		},
	}
}

func newClientBuckets(perMin int, ttl time.Duration) *clientBuckets {
	return &clientBuckets{
		limit:   rate.Limit(float64(perMin) / 60),
		burst:   perMin,
		clients: expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, ttl),
	}
}

// Allow records an event of the given kind for client if its bucket has
// room. It returns ErrRateLimited otherwise. Unknown kinds are never
// limited.
func (rl *RateLimiter) Allow(kind, client string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lim := rl.bucket(kind, client)
	if lim == nil {
		return nil
	}
	if !lim.AllowN(rl.now(), 1) {
		return ErrRateLimited
	}
	return nil
}

// Exhausted reports whether client's bucket is empty, without recording
// an event.
func (rl *RateLimiter) Exhausted(kind, client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lim := rl.bucket(kind, client)
	if lim == nil {
		return false
	}
	return lim.TokensAt(rl.now()) < 1
}

// bucket returns the limiter for kind and client, creating it on first
// use. Every lookup renews the client's expiry, so only idle clients are
// forgotten. The caller holds rl.mu.
func (rl *RateLimiter) bucket(kind, client string) *rate.Limiter {
	kb, ok := rl.kinds[kind]
	if !ok {
		return nil
	}
	lim, ok := kb.clients.Get(client)
	if !ok {
		lim = rate.NewLimiter(kb.limit, kb.burst)
	}
	kb.clients.Add(client, lim)
	return lim
}
