package reliability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantTimer fires as soon as it is started and records each wait.
type instantTimer struct {
	c     chan time.Time
	waits []time.Duration
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

// stalledTimer never fires.
type stalledTimer struct{ c chan time.Time }

func (t stalledTimer) Start(time.Duration) {}
func (t stalledTimer) Stop() {}
func (t stalledTimer) C() <-chan time.Time { return t.c }

func TestExponentialBackoffDelays(t *testing.T) {
	p := NewExponentialBackoff(Config{
		MaxAttempts:  5,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2,
	})

	assert.Equal(t, time.Duration(0), p.NextDelay(-1))
	assert.Equal(t, 10*time.Millisecond, p.NextDelay(0))
	assert.Equal(t, 20*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 40*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, 50*time.Millisecond, p.NextDelay(3))
	assert.Equal(t, 5, p.MaxAttempts())
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	p := NewExponentialBackoff(Config{InitialDelay: 100 * time.Millisecond, Jitter: 0.5})
	for i := 0; i < 50; i++ {
		d := p.NextDelay(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestExponentialBackoffDefaults(t *testing.T) {
	p := NewExponentialBackoff(Config{})
	def := DefaultConfig()
	assert.Equal(t, def.MaxAttempts, p.MaxAttempts())
	assert.Equal(t, def.InitialDelay, p.cfg.InitialDelay)
	assert.NotNil(t, p.cfg.Retryable)
}

func TestExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		r := NewExecutor(NewExponentialBackoff(Config{MaxAttempts: 3}))
		r.timer = newInstantTimer()
		var retries []int
		r.OnRetry(func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) })

		calls := 0
		err := r.Execute(ctx, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection reset")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retries)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		r := NewExecutor(NewExponentialBackoff(Config{MaxAttempts: 2}))
		r.timer = newInstantTimer()
		calls := 0
		err := r.Execute(ctx, func(context.Context) error {
			calls++
			return errors.New("boom")
		})
		assert.EqualError(t, err, "boom")
		assert.Equal(t, 2, calls)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		r := NewExecutor(nil)
		r.timer = newInstantTimer()
		sentinel := errors.New("not found")
		calls := 0
		err := r.Execute(ctx, func(context.Context) error {
			calls++
			return Permanent(sentinel)
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls)
	})

	t.Run("waits follow the policy delays", func(t *testing.T) {
		r := NewExecutor(NewExponentialBackoff(Config{
			MaxAttempts:  4,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   3,
		}))
		timer := newInstantTimer()
		r.timer = timer
		var delays []time.Duration
		r.OnRetry(func(_ int, d time.Duration, _ error) { delays = append(delays, d) })

		err := r.Execute(ctx, func(context.Context) error { return errors.New("unavailable") })
		assert.EqualError(t, err, "unavailable")
		want := []time.Duration{10 * time.Millisecond, 30 * time.Millisecond, 90 * time.Millisecond}
		assert.Equal(t, want, timer.waits)
		assert.Equal(t, want, delays)
	})

	t.Run("wrapped permanent error is returned as is", func(t *testing.T) {
		r := NewExecutor(nil)
		r.timer = newInstantTimer()
		sentinel := errors.New("access denied")
		err := r.Execute(ctx, func(context.Context) error {
			return fmt.Errorf("put object: %w", Permanent(sentinel))
		})
		assert.EqualError(t, err, "put object: access denied")
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		r := NewExecutor(nil)
		r.timer = stalledTimer{c: make(chan time.Time)}
		r.OnRetry(func(int, time.Duration, error) { cancel() })
		calls := 0
		err := r.Execute(cctx, func(context.Context) error {
			calls++
			return errors.New("connection reset")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		r := NewExecutor(nil)
		calls := 0
		err := r.Execute(cctx, func(context.Context) error {
			calls++
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("timeout"), true},
		{"permanent", Permanent(errors.New("bad")), false},
		{"marked by backoff", backoff.Permanent(errors.New("bad")), false},
		{"wrapped permanent", fmt.Errorf("upload: %w", Permanent(errors.New("bad"))), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
	assert.Nil(t, Permanent(nil))
}
