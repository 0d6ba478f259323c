// Package retry implements exponential backoff with jitter for the
// transient failures a chapter fetch can hit. Only errors classified
// as transient are retried; everything else propagates immediately and
// consumes no retry budget.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/vrsandeep/tome-go/internal/stealth"
)

// ErrTransient marks an error as retryable. Providers wrap throttling
// responses and interrupted fetches with it.
var ErrTransient = errors.New("transient failure")

// Policy controls the backoff schedule.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	Jitter      time.Duration // symmetric, applied after capping
}

// DefaultPolicy is tuned for chapter fetches against a throttling
// lending service.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Multiplier:  2,
		MaxDelay:    30 * time.Second,
		Jitter:      500 * time.Millisecond,
	}
}

// Executor retries operations according to a Policy.
type Executor struct {
	policy Policy
	rng    *rand.Rand
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option customizes an Executor.
type Option func(*Executor)

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// WithRand overrides the jitter random source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Executor) { e.rng = rng }
}

// New constructs an Executor for the given policy.
func New(policy Policy, opts ...Option) *Executor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Multiplier <= 0 {
		policy.Multiplier = 1
	}
	e := &Executor{
		policy: policy,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  stealth.SleepWithContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do runs op, retrying transient failures up to MaxAttempts times.
// The final error is returned unchanged so callers keep the root
// cause for diagnostics.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetriable(lastErr) {
			return lastErr
		}
		if attempt == e.policy.MaxAttempts {
			break
		}
		if err := e.sleep(ctx, e.delayBefore(attempt+1)); err != nil {
			return err
		}
	}
	return lastErr
}

// delayBefore computes the backoff delay preceding the given attempt
// (attempts are 1-indexed; the first attempt has no delay):
// min(maxDelay, base * multiplier^(n-2)) + symmetric jitter, floored
// at zero.
func (e *Executor) delayBefore(attempt int) time.Duration {
	backoff := float64(e.policy.BaseDelay) * math.Pow(e.policy.Multiplier, float64(attempt-2))
	d := time.Duration(backoff)
	if e.policy.MaxDelay > 0 && d > e.policy.MaxDelay {
		d = e.policy.MaxDelay
	}
	if e.policy.Jitter > 0 {
		offset := time.Duration(e.rng.Int63n(int64(2*e.policy.Jitter)+1)) - e.policy.Jitter
		d += offset
	}
	if d < 0 {
		d = 0
	}
	return d
}

// IsRetriable reports whether err represents a transient condition
// that warrants an automatic retry (rate limits, timeouts, connection
// errors, interrupted fetches). Validation failures and anything else
// unknown are not retried.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "429") || strings.Contains(message, "rate limit") {
		return true
	}
	// Server errors are typically transient (outages, deploys, overload).
	for _, code := range []string{"502", "503", "504"} {
		if strings.Contains(message, code) {
			return true
		}
	}
	transientTokens := []string{
		"timeout",
		"deadline exceeded",
		"client.timeout exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"unexpected eof",
		"awaiting headers",
	}
	for _, token := range transientTokens {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
