// Package stealth implements the pacing policy for downloads: randomized
// inter-chapter delays, periodic rest breaks and an hourly book quota.
// Sequential pacing is the anti-throttling mechanism, so nothing here
// performs I/O; the limiter only counts and sleeps.
package stealth

import "time"

// BreakPolicy controls periodic rests between chapter downloads.
type BreakPolicy struct {
	Enabled        bool
	EveryNChapters int
	DurationMin    time.Duration
	DurationMax    time.Duration
}

// Profile is a named pacing preset. Profiles are a fixed table baked in
// at construction and immutable for a session.
type Profile struct {
	Name            string
	DelayMin        time.Duration
	DelayMax        time.Duration
	Break           BreakPolicy
	MaxBooksPerHour int
}

var profiles = map[string]Profile{
	"safe": {
		Name:     "safe",
		DelayMin: 8 * time.Second,
		DelayMax: 15 * time.Second,
		Break: BreakPolicy{
			Enabled:        true,
			EveryNChapters: 5,
			DurationMin:    1 * time.Minute,
			DurationMax:    3 * time.Minute,
		},
		MaxBooksPerHour: 1,
	},
	"balanced": {
		Name:     "balanced",
		DelayMin: 4 * time.Second,
		DelayMax: 8 * time.Second,
		Break: BreakPolicy{
			Enabled:        true,
			EveryNChapters: 10,
			DurationMin:    30 * time.Second,
			DurationMax:    60 * time.Second,
		},
		MaxBooksPerHour: 2,
	},
	"aggressive": {
		Name:     "aggressive",
		DelayMin: 1 * time.Second,
		DelayMax: 3 * time.Second,
		Break: BreakPolicy{
			Enabled: false,
		},
		MaxBooksPerHour: 4,
	},
}

// ProfileByName looks up one of the named presets (safe, balanced,
// aggressive). The second return value is false for unknown names.
func ProfileByName(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// ProfileNames lists the available preset names.
func ProfileNames() []string {
	return []string{"safe", "balanced", "aggressive"}
}
