package stealth

import (
	"context"
	"math/rand"
	"testing"
	"time"
)

func TestSleepWithContextZero(t *testing.T) {
	if err := SleepWithContext(context.Background(), 0); err != nil {
		t.Errorf("zero sleep returned %v", err)
	}
}

func TestSleepWithContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := SleepWithContext(ctx, time.Hour)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled sleep took %v", elapsed)
	}
}

func TestJitterBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := 10 * time.Second
	for i := 0; i < 500; i++ {
		d := Jitter(rng, base, 0.25)
		if d < 7500*time.Millisecond || d > 12500*time.Millisecond {
			t.Fatalf("jittered %v outside ±25%% of %v", d, base)
		}
	}
}

func TestJitterNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		if d := Jitter(rng, time.Millisecond, 5.0); d < 0 {
			t.Fatal("jitter produced a negative duration")
		}
	}
}

func TestSampleBetweenDegenerateRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if d := sampleBetween(rng, time.Second, time.Second); d != time.Second {
		t.Errorf("sampleBetween(1s,1s) = %v", d)
	}
}
