package stealth

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// BreakPhase marks the start or end of a rest period so consumers can
// tell a deliberate pause from a stalled download.
type BreakPhase string

const (
	BreakStart BreakPhase = "break_start"
	BreakEnd   BreakPhase = "break_end"
)

// BreakFunc receives break markers around a rest period.
type BreakFunc func(phase BreakPhase, duration time.Duration)

// Limiter enforces a Profile for one session: inter-chapter delays,
// periodic breaks and the hourly book quota. Safe for use from
// multiple goroutines, though the download pipeline itself is strictly
// sequential.
type Limiter struct {
	mu            sync.Mutex
	profile       Profile
	chaptersDone  int
	booksThisHour int
	windowStart   time.Time

	rng   *rand.Rand
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Limiter, mainly for tests.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSleeper overrides how delays are awaited.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) { l.sleep = sleep }
}

// WithRand overrides the random source.
func WithRand(rng *rand.Rand) Option {
	return func(l *Limiter) { l.rng = rng }
}

// NewLimiter creates a limiter for the given profile. The quota window
// is anchored at construction time (session start).
func NewLimiter(profile Profile, opts ...Option) *Limiter {
	l := &Limiter{
		profile: profile,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		sleep:   SleepWithContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.windowStart = l.now()
	return l
}

// Profile returns the active pacing preset.
func (l *Limiter) Profile() Profile { return l.profile }

// NextChapterDelay samples a uniform delay from the profile's
// [DelayMin, DelayMax] range.
func (l *Limiter) NextChapterDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sampleBetween(l.rng, l.profile.DelayMin, l.profile.DelayMax)
}

// OnChapterDownloaded counts a completed chapter and, when the break
// policy fires, rests for a sampled duration. The onBreak callback is
// invoked with start and end markers around the rest so callers can
// surface them as progress events. Returns the context error if the
// sleep is interrupted.
func (l *Limiter) OnChapterDownloaded(ctx context.Context, onBreak BreakFunc) error {
	l.mu.Lock()
	l.chaptersDone++
	policy := l.profile.Break
	count := l.chaptersDone
	var dur time.Duration
	takeBreak := policy.Enabled && policy.EveryNChapters > 0 && count%policy.EveryNChapters == 0
	if takeBreak {
		dur = sampleBetween(l.rng, policy.DurationMin, policy.DurationMax)
	}
	sleep := l.sleep
	l.mu.Unlock()

	if !takeBreak {
		return nil
	}
	if onBreak != nil {
		onBreak(BreakStart, dur)
	}
	if err := sleep(ctx, dur); err != nil {
		return err
	}
	if onBreak != nil {
		onBreak(BreakEnd, dur)
	}
	return nil
}

// CanStartBook reports whether the hourly quota still allows starting
// another book. The window is fixed, measured from session start, and
// only rolls forward once a full hour has elapsed; it is deliberately
// not a sliding window.
func (l *Limiter) CanStartBook() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollWindow()
	return l.booksThisHour < l.profile.MaxBooksPerHour
}

// BookStarted records a book against the hourly quota.
func (l *Limiter) BookStarted() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollWindow()
	l.booksThisHour++
}

func (l *Limiter) rollWindow() {
	if l.now().Sub(l.windowStart) >= time.Hour {
		l.windowStart = l.now()
		l.booksThisHour = 0
	}
}

// Wait sleeps for the sampled inter-chapter delay, honoring context
// cancellation.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.sleep(ctx, l.NextChapterDelay())
}
