// Package backoff provides pluggable retry delay strategies.
// All strategies are stateless and safe for concurrent use.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry n (1-indexed).
	// Retry 1 follows the first failed attempt.
	Delay(attempt int) time.Duration
}

// Func adapts an ordinary function to a Strategy.
type Func func(attempt int) time.Duration

// Delay calls f.
func (f Func) Delay(attempt int) time.Duration { return f(attempt) }

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant always returns the same delay regardless of attempt number.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// ──────────────────────────────────────────────────
// Linear
// ──────────────────────────────────────────────────

// Linear grows the delay by Initial per attempt, capped at Max when set.
type Linear struct {
	Initial time.Duration
	Max     time.Duration
}

// NewLinear creates a linear backoff strategy.
func NewLinear(initial, maxDelay time.Duration) *Linear {
	return &Linear{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * attempt, capped at Max.
func (l *Linear) Delay(attempt int) time.Duration {
	attempt = max(attempt, 1)
	d := l.Initial * time.Duration(attempt)
	if d < 0 || (l.Max > 0 && d > l.Max) {
		return capOrMax(l.Max)
	}
	return d
}

// ──────────────────────────────────────────────────
// Exponential
// ──────────────────────────────────────────────────

// Exponential doubles the delay each attempt: Initial * 2^(attempt-1),
// capped at Max when Max is positive. Results that would overflow a
// Duration saturate instead of wrapping.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	return exponential(e.Initial, e.Max, attempt)
}

// ──────────────────────────────────────────────────
// ExponentialWithJitter (full jitter)
// ──────────────────────────────────────────────────

// ExponentialWithJitter picks a random delay in [0, Exponential.Delay].
// Useful when many jobs fail together and should not retry in lockstep.
type ExponentialWithJitter struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponentialWithJitter creates an exponential backoff with full jitter.
func NewExponentialWithJitter(initial, maxDelay time.Duration) *ExponentialWithJitter {
	return &ExponentialWithJitter{Initial: initial, Max: maxDelay}
}

// Delay returns a random duration in [0, min(Initial * 2^(attempt-1), Max)].
func (e *ExponentialWithJitter) Delay(attempt int) time.Duration {
	base := exponential(e.Initial, e.Max, attempt)
	return time.Duration(rand.Float64() * float64(base)) //nolint:gosec // jitter intentionally uses non-crypto rand
}

// ──────────────────────────────────────────────────
// Default
// ──────────────────────────────────────────────────

// DefaultStrategy returns the manager's default: exponential from base,
// capped at maxDelay (zero leaves it uncapped).
func DefaultStrategy(base, maxDelay time.Duration) Strategy {
	return NewExponential(base, maxDelay)
}

func exponential(initial, maxDelay time.Duration, attempt int) time.Duration {
	attempt = max(attempt, 1)
	if initial <= 0 {
		return 0
	}
	shift := attempt - 1
	if shift >= 63 || initial > time.Duration(math.MaxInt64>>shift) {
		return capOrMax(maxDelay)
	}
	d := initial << shift
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}

func capOrMax(maxDelay time.Duration) time.Duration {
	if maxDelay > 0 {
		return maxDelay
	}
	return time.Duration(math.MaxInt64)
}
