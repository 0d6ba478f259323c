package stealth

import (
	"context"
	"math/rand"
	"time"
)

// SleepWithContext blocks for the given duration, returning early if
// the context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// sampleBetween returns a uniformly random duration in [min, max].
func sampleBetween(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)+1))
}

// Jitter perturbs d by a symmetric random amount of up to frac of its
// value. A frac of 0.1 yields a result in [0.9d, 1.1d]. The result is
// never negative.
func Jitter(rng *rand.Rand, d time.Duration, frac float64) time.Duration {
	if d <= 0 || frac <= 0 {
		return d
	}
	spread := float64(d) * frac
	offset := (rng.Float64()*2 - 1) * spread
	out := time.Duration(float64(d) + offset)
	if out < 0 {
		return 0
	}
	return out
}
