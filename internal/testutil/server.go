package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/vrsandeep/tome-go/internal/config"
	"github.com/vrsandeep/tome-go/internal/core"
	"github.com/vrsandeep/tome-go/internal/downloader/providers"
	"github.com/vrsandeep/tome-go/internal/downloader/providers/mockvox"
	"github.com/vrsandeep/tome-go/internal/state"
	"github.com/vrsandeep/tome-go/internal/stealth"
)

// instantSleep makes pacing and break delays return immediately so
// tests never wait on the limiter.
func instantSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

// TestConfig returns a config pointing every path at test-local temp
// directories.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{Port: 8080}
	cfg.Output.Path = t.TempDir()
	cfg.State.Path = t.TempDir()
	cfg.State.RetentionDays = 30
	cfg.Stealth.Profile = "aggressive"
	cfg.Fetch.TimeoutSeconds = 5
	cfg.Merge.Enabled = false
	cfg.Merge.FFmpegPath = "ffmpeg"
	cfg.Merge.FFprobePath = "ffprobe"
	return cfg
}

// SetupTestApp builds a core.App backed by an in-memory database, a
// temp state store and a non-sleeping limiter, with the mock provider
// registered.
func SetupTestApp(t *testing.T) *core.App {
	t.Helper()

	db := SetupTestDB(t)
	cfg := TestConfig(t)

	stateStore, err := state.New(cfg.State.Path)
	if err != nil {
		t.Fatalf("Failed to create state store: %v", err)
	}

	profile, _ := stealth.ProfileByName(cfg.Stealth.Profile)
	limiter := stealth.NewLimiter(profile, stealth.WithSleeper(instantSleep))

	app := core.NewForTesting(cfg, db, stateStore, limiter)

	t.Cleanup(func() {
		providers.UnregisterAll()
	})

	// Register providers for the test environment
	providers.Register(mockvox.New())
	return app
}
