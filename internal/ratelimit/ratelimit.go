// Package ratelimit paces outbound page fetches with a sliding one-minute
// window plus randomized, human-like delays.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"sjsage522/auctionwatcher/logger"
)

const (
	window       = time.Minute
	windowBuffer = time.Second
)

// Config controls pacing.
type Config struct {
	MinDelay          time.Duration
	MaxDelay          time.Duration
	RequestsPerMinute int

	// PauseChance is the probability that a delay is stretched by a factor
	// drawn from [PauseMinFactor, PauseMaxFactor].
	PauseChance    float64
	PauseMinFactor float64
	PauseMaxFactor float64
}

// DefaultConfig mirrors the site-friendly defaults.
func DefaultConfig() Config {
	return Config{
		MinDelay:          2 * time.Second,
		MaxDelay:          5 * time.Second,
		RequestsPerMinute: 15,
		PauseChance:       0.1,
		PauseMinFactor:    1.5,
		PauseMaxFactor:    2.5,
	}
}

// Status is a non-blocking snapshot of quota usage.
type Status struct {
	RequestsInLastMinute int  `json:"requests_in_last_minute"`
	RequestsRemaining    int  `json:"requests_remaining"`
	CanProceed           bool `json:"can_proceed"`
}

// Limiter is safe for concurrent use; concurrent Wait calls are serialized.
type Limiter struct {
	cfg Config

	waitMu sync.Mutex // serializes Wait

	mu    sync.Mutex // guards times and rnd
	times []time.Time
	rnd   *rand.Rand

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
	log   *logger.Logger
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces the time source and the sleeper, for tests.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

// WithRand replaces the random source.
func WithRand(r *rand.Rand) Option {
	return func(l *Limiter) { l.rnd = r }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

// New creates a Limiter.
func New(cfg Config, opts ...Option) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 1
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	l := &Limiter{
		cfg:   cfg,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
		sleep: sleepContext,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Wait blocks until the next fetch is permitted. The request is recorded
// only after the wait completes. It returns ctx.Err() if cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	l.waitMu.Lock()
	defer l.waitMu.Unlock()

	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		var block time.Duration
		if len(l.times) >= l.cfg.RequestsPerMinute {
			block = window - now.Sub(l.times[0]) + windowBuffer
		}
		l.mu.Unlock()

		if block <= 0 {
			break
		}
		l.log.Info().Dur("wait", block).Msg("Rate limit reached, waiting for window")
		if err := l.sleep(ctx, block); err != nil {
			return err
		}
	}

	delay := l.humanDelay()
	l.log.Debug().Dur("delay", delay).Msg("Waiting before next request")
	if err := l.sleep(ctx, delay); err != nil {
		return err
	}

	l.mu.Lock()
	l.times = append(l.times, l.now())
	l.mu.Unlock()
	return nil
}

// Status returns quota usage without blocking on an in-flight Wait.
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())

	remaining := l.cfg.RequestsPerMinute - len(l.times)
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		RequestsInLastMinute: len(l.times),
		RequestsRemaining:    remaining,
		CanProceed:           len(l.times) < l.cfg.RequestsPerMinute,
	}
}

// Jitter returns base shifted by a uniform amount within ±pct of base.
func (l *Limiter) Jitter(base, pct float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	j := base * pct
	return base + (l.rnd.Float64()*2-1)*j
}

func (l *Limiter) humanDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	delay := l.cfg.MinDelay
	if span := l.cfg.MaxDelay - l.cfg.MinDelay; span > 0 {
		delay += time.Duration(l.rnd.Int63n(int64(span) + 1))
	}
	if l.cfg.PauseChance > 0 && l.rnd.Float64() < l.cfg.PauseChance {
		factor := l.cfg.PauseMinFactor + l.rnd.Float64()*(l.cfg.PauseMaxFactor-l.cfg.PauseMinFactor)
		delay = time.Duration(float64(delay) * factor)
	}
	return delay
}

// prune drops timestamps that left the window. Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	i := 0
	for i < len(l.times) && now.Sub(l.times[i]) >= window {
		i++
	}
	if i > 0 {
		l.times = append(l.times[:0], l.times[i:]...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
