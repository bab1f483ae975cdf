package ratelimit

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	l := New(cfg, WithClock(clock.Now, clock.Sleep), WithRand(rand.New(rand.NewSource(1))))
	return l, clock
}

func TestInitialStatus(t *testing.T) {
	l, _ := newTestLimiter(Config{MinDelay: time.Second, MaxDelay: 2 * time.Second, RequestsPerMinute: 30})

	status := l.Status()
	assert.Equal(t, 0, status.RequestsInLastMinute)
	assert.Equal(t, 30, status.RequestsRemaining)
	assert.True(t, status.CanProceed)
}

func TestSixthWaitBlocksUntilWindowAdmits(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerMinute: 5})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	assert.False(t, l.Status().CanProceed)
	for _, d := range clock.sleeps {
		assert.Zero(t, d)
	}

	start := clock.now
	require.NoError(t, l.Wait(ctx))

	assert.Contains(t, clock.sleeps, window+windowBuffer)
	assert.GreaterOrEqual(t, clock.now.Sub(start), time.Minute)
	assert.Equal(t, 1, l.Status().RequestsInLastMinute)
}

func TestDelayWithinBounds(t *testing.T) {
	l, clock := newTestLimiter(Config{MinDelay: 2 * time.Second, MaxDelay: 5 * time.Second, RequestsPerMinute: 100})

	for i := 0; i < 20; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	require.Len(t, clock.sleeps, 20)
	for _, d := range clock.sleeps {
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}
}

func TestExtendedPause(t *testing.T) {
	l, clock := newTestLimiter(Config{
		MinDelay:          2 * time.Second,
		MaxDelay:          2 * time.Second,
		RequestsPerMinute: 100,
		PauseChance:       1,
		PauseMinFactor:    1.5,
		PauseMaxFactor:    2.5,
	})

	require.NoError(t, l.Wait(context.Background()))
	require.Len(t, clock.sleeps, 1)
	assert.GreaterOrEqual(t, clock.sleeps[0], 3*time.Second)
	assert.LessOrEqual(t, clock.sleeps[0], 5*time.Second)
}

func TestWaitCancelled(t *testing.T) {
	l, _ := newTestLimiter(Config{RequestsPerMinute: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
	assert.Equal(t, 0, l.Status().RequestsInLastMinute)
}

func TestJitter(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig())
	for i := 0; i < 10; i++ {
		v := l.Jitter(10, 0.2)
		assert.GreaterOrEqual(t, v, 8.0)
		assert.LessOrEqual(t, v, 12.0)
	}
}
