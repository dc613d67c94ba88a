// Package reliability retries remote document store calls with backoff.
package reliability

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy decides how often, and how far apart, a failed call is retried.
type Policy interface {
	// NextDelay returns the delay before the next attempt, given the attempt number (0-indexed)
	NextDelay(attempt int) time.Duration
	// ShouldRetry reports whether err on the given attempt warrants another one
	ShouldRetry(err error, attempt int) bool
	// MaxAttempts returns the maximum number of attempts, including the first
	MaxAttempts() int
}

// Config holds configuration for exponential backoff.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including initial attempt)
	MaxAttempts int
	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration
	// MaxDelay caps the delay between retries
	MaxDelay time.Duration
	// Multiplier for exponential backoff
	Multiplier float64
	// Jitter is the fraction of randomness applied to each delay, in [0, 1]
	Jitter float64
	// Retryable decides if an error should trigger a retry. Default: IsRetryable
	Retryable func(error) bool
}

// DefaultConfig returns the backoff used by document stores.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
		Retryable:    IsRetryable,
	}
}

// ExponentialBackoff implements exponential backoff with jitter.
type ExponentialBackoff struct {
	cfg Config
}

// NewExponentialBackoff creates a policy, filling unset fields from DefaultConfig.
func NewExponentialBackoff(cfg Config) *ExponentialBackoff {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = def.Jitter
	}
	if cfg.Retryable == nil {
		cfg.Retryable = def.Retryable
	}
	return &ExponentialBackoff{cfg: cfg}
}

// NextDelay calculates the delay for the next retry attempt
func (p *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}

	delay := float64(p.cfg.InitialDelay) * math.Pow(p.cfg.Multiplier, float64(attempt))
	if delay > float64(p.cfg.MaxDelay) {
		delay = float64(p.cfg.MaxDelay)
	}

	if p.cfg.Jitter > 0 {
		delay += (rand.Float64() - 0.5) * 2 * delay * p.cfg.Jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ShouldRetry determines if a retry should be attempted
func (p *ExponentialBackoff) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.cfg.MaxAttempts-1 {
		return false
	}
	return p.cfg.Retryable(err)
}

// MaxAttempts returns the maximum number of attempts
func (p *ExponentialBackoff) MaxAttempts() int {
	return p.cfg.MaxAttempts
}

// Executor runs operations under a Policy, driving them with the
// backoff.Retry loop.
type Executor struct {
	policy  Policy
	onRetry func(attempt int, delay time.Duration, err error)
	// timer waits between attempts. nil means a real timer per call.
	timer backoff.Timer
}

// NewExecutor creates an executor. A nil policy means DefaultConfig.
func NewExecutor(policy Policy) *Executor {
	if policy == nil {
		policy = NewExponentialBackoff(DefaultConfig())
	}
	return &Executor{
		policy:  policy,
		onRetry: func(int, time.Duration, error) {},
	}
}

// OnRetry sets a callback invoked before each retry.
func (r *Executor) OnRetry(callback func(attempt int, delay time.Duration, err error)) {
	if callback == nil {
		callback = func(int, time.Duration, error) {}
	}
	r.onRetry = callback
}

// Execute runs operation until it succeeds, the policy gives up or ctx is done.
// The error that stopped the loop is returned as the operation produced it.
func (r *Executor) Execute(ctx context.Context, operation func(context.Context) error) error {
	attempts := 0
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := operation(ctx)
		if err != nil && !r.policy.ShouldRetry(err, attempts) {
			return backoff.Permanent(err)
		}
		attempts++
		return err
	}
	notify := func(err error, delay time.Duration) {
		r.onRetry(attempts, delay, err)
	}
	b := backoff.WithContext(&policyBackOff{policy: r.policy}, ctx)
	return backoff.RetryNotifyWithTimer(op, b, notify, r.timer)
}

// policyBackOff exposes a Policy as a backoff.BackOff. Attempt limits are
// enforced by ShouldRetry, so it never returns backoff.Stop.
type policyBackOff struct {
	policy Policy
	next   int
}

func (b *policyBackOff) Reset() { b.next = 0 }

func (b *policyBackOff) NextBackOff() time.Duration {
	d := b.policy.NextDelay(b.next)
	b.next++
	return d
}

// Permanent marks err as not worth retrying. The mark is a
// *backoff.PermanentError, so callers retrying with backoff.Retry agree.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// IsRetryable reports whether err is worth another attempt. Permanent and
// context errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
