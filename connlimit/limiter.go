// Package connlimit admits or rejects a newly accepted connection by its
// remote address, so one address cannot monopolize engine.Server's accept
// loop. It needs exactly one operation — "does this address still have a
// token" — so unlike a general-purpose rate limiter there is no separate
// store/limiter split and no per-call token cost: a Limiter owns its own
// bucket map directly, and Allow always spends exactly one token.
package connlimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config sets the shape of every remote address's bucket: Capacity tokens
// are available up front, refilling by RefillRate tokens every
// RefillInterval.
type Config struct {
	Capacity       int
	RefillRate     int
	RefillInterval time.Duration
}

type bucket struct {
	tokens     int
	refilledAt time.Time
	touchedAt  time.Time
}

// Limiter admits connections per remote address against an in-memory
// token bucket. Build one with NewLimiter.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	buckets map[string]*bucket

	sweepEvery time.Duration
	staleAfter time.Duration
	logger     *slog.Logger
}

// Option configures a Limiter at construction time.
type Option func(*Limiter)

// WithSweepInterval overrides how often Run checks for idle buckets to
// evict. Default five minutes.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) { l.sweepEvery = d }
}

// WithStaleAfter overrides how long a bucket may sit untouched before Run
// evicts it. Default one hour.
func WithStaleAfter(d time.Duration) Option {
	return func(l *Limiter) { l.staleAfter = d }
}

// WithLogger sets the logger Run uses to report sweep activity.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLimiter builds a Limiter that admits at most cfg.Capacity connections
// per remote address, refilling cfg.RefillRate tokens every
// cfg.RefillInterval. Allow works immediately; Run additionally evicts
// idle buckets in the background.
func NewLimiter(cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		cfg:        cfg,
		buckets:    make(map[string]*bucket),
		sweepEvery: 5 * time.Minute,
		staleAfter: time.Hour,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether remoteAddr may open another connection right now,
// consuming one token from its bucket if so. remoteAddr's bucket is
// created full on first use.
func (l *Limiter) Allow(remoteAddr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[remoteAddr]
	if !ok {
		b = &bucket{tokens: l.cfg.Capacity, refilledAt: now}
		l.buckets[remoteAddr] = b
	}
	l.refill(b, now)
	b.touchedAt = now

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// refill credits b with whole RefillIntervals elapsed since its last
// refill, capped at Capacity.
func (l *Limiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.refilledAt)
	periods := int(elapsed / l.cfg.RefillInterval)
	if periods <= 0 {
		return
	}
	b.tokens = min(b.tokens+periods*l.cfg.RefillRate, l.cfg.Capacity)
	b.refilledAt = b.refilledAt.Add(time.Duration(periods) * l.cfg.RefillInterval)
}

// Run evicts buckets untouched for longer than staleAfter on every sweep
// interval, until ctx is canceled. Matches the errgroup-compatible Run
// shape of engine.Server.Run.
func (l *Limiter) Run(ctx context.Context) func() error {
	return func() error {
		ticker := time.NewTicker(l.sweepEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				l.sweep()
			}
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	removed := 0
	for addr, b := range l.buckets {
		if now.Sub(b.touchedAt) > l.staleAfter {
			delete(l.buckets, addr)
			removed++
		}
	}
	if removed > 0 {
		l.logger.Debug("connlimit: evicted idle buckets", slog.Int("count", removed))
	}
}
