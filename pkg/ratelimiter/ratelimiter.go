// Package ratelimiter implements an in-memory token bucket keyed by client
// and an HTTP middleware enforcing it.
package ratelimiter

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidConfig indicates a non-positive capacity, rate or interval.
var ErrInvalidConfig = errors.New("ratelimiter: invalid configuration")

// DefaultIdleTimeout is how long an untouched bucket survives cleanup when
// Config.IdleTimeout is zero.
const DefaultIdleTimeout = time.Hour

// Config defines the token bucket. A zero Capacity disables limiting.
// CleanupInterval controls how often idle buckets are dropped; zero disables
// the background cleanup.
type Config struct {
	Capacity        int           `env:"CAPACITY" envDefault:"0"`
	RefillRate      int           `env:"REFILL_RATE" envDefault:"1"`
	RefillInterval  time.Duration `env:"REFILL_INTERVAL" envDefault:"1s"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"1h"`
}

// Enabled reports whether limiting is configured.
func (c Config) Enabled() bool { return c.Capacity > 0 }

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	if c.CleanupInterval < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("%w: cleanup interval and idle timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Result is the outcome of one Allow call.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allowed reports whether the call fit in the bucket.
func (r Result) Allowed() bool { return r.Remaining >= 0 }

// RetryAfter is zero for allowed calls.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
}

// Limiter holds one bucket per key.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New validates cfg and starts the idle bucket cleanup when
// cfg.CleanupInterval is set. Call Close to stop it.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if cfg.CleanupInterval > 0 {
		go l.cleanup()
	}
	return l, nil
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Prune(l.cfg.IdleTimeout)
		case <-l.stop:
			return
		}
	}
}

// Close stops the background cleanup. Safe to call more than once.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Len returns the number of tracked buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Allow takes one token from the bucket of key. Denied calls report a
// negative Remaining.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.cfg.Capacity, lastRefill: now}
		l.buckets[key] = b
	}

	// Bounded so long idle periods cannot overflow.
	maxIntervals := int64(l.cfg.Capacity/l.cfg.RefillRate + 1)
	if n := int(min(int64(now.Sub(b.lastRefill)/l.cfg.RefillInterval), maxIntervals)); n > 0 {
		b.tokens = min(max(b.tokens, 0)+n*l.cfg.RefillRate, l.cfg.Capacity)
		b.lastRefill = now
	}
	if b.tokens >= 0 {
		b.tokens--
	}
	b.lastAccess = now

	return Result{
		Limit:     l.cfg.Capacity,
		Remaining: b.tokens,
		ResetAt:   b.lastRefill.Add(l.cfg.RefillInterval),
	}
}

// Reset forgets the bucket of key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Prune drops buckets idle for longer than idle and returns how many.
func (l *Limiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	now := l.now()
	for k, b := range l.buckets {
		if now.Sub(b.lastAccess) > idle {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}
