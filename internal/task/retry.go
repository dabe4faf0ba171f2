package task

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls the delay applied before a retried task becomes
// eligible for its next attempt. The present contract (spec §4.5, §9)
// is immediate re-enqueue with no backoff and no jitter: ZeroBackoff
// is the Coordinator's default. Exponential backoff is carried as a
// pluggable extension rather than deleted, for callers who opt in.
type RetryPolicy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	JitterFactor   float64
}

// ZeroBackoff is the default policy: requeue immediately, matching the
// fixed retry contract described in spec §4.5 and §9.
func ZeroBackoff() *RetryPolicy {
	return &RetryPolicy{
		InitialBackoff: 0,
		MaxBackoff:     0,
		BackoffFactor:  1,
		JitterFactor:   0,
	}
}

// DefaultExponentialBackoff returns the opt-in exponential-with-jitter
// policy the improvement note in spec §9 describes.
func DefaultExponentialBackoff() *RetryPolicy {
	return &RetryPolicy{
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     5 * time.Minute,
		BackoffFactor:  2.0,
		JitterFactor:   0.1,
	}
}

// Delay calculates the backoff duration before retrying the given
// attempt number (0-indexed, the task's Retries value before increment).
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	if p.InitialBackoff <= 0 {
		return 0
	}
	if attempt <= 0 {
		return p.InitialBackoff
	}

	backoff := float64(p.InitialBackoff) * math.Pow(p.BackoffFactor, float64(attempt))
	if p.MaxBackoff > 0 && backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}

	if p.JitterFactor > 0 {
		jitter := backoff * p.JitterFactor * (rand.Float64()*2 - 1)
		backoff += jitter
	}
	if backoff < 0 {
		backoff = float64(p.InitialBackoff)
	}

	return time.Duration(backoff)
}
