package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vrsandeep/tome-go/internal/downloader/providers/mockvox"
	"github.com/vrsandeep/tome-go/internal/events"
	"github.com/vrsandeep/tome-go/internal/models"
	"github.com/vrsandeep/tome-go/internal/retry"
	"github.com/vrsandeep/tome-go/internal/state"
	"github.com/vrsandeep/tome-go/internal/stealth"
	"github.com/vrsandeep/tome-go/internal/util"
)

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestPipeline(t *testing.T, provider models.Provider) (*Pipeline, *state.Store) {
	t.Helper()
	states, err := state.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create state store: %v", err)
	}
	profile, _ := stealth.ProfileByName("aggressive")
	limiter := stealth.NewLimiter(profile, stealth.WithSleeper(noSleep))
	retrier := retry.New(retry.DefaultPolicy(), retry.WithSleeper(noSleep))
	return NewPipeline(provider, limiter, retrier, states, events.NewHub(), 5*time.Second), states
}

func testRequest(t *testing.T, provider models.Provider, root string) BookRequest {
	t.Helper()
	meta, chapters, err := provider.GetBook("test-book")
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	return BookRequest{
		BookID:     "mockvox-test-book",
		Metadata:   meta,
		Chapters:   chapters,
		OutputRoot: root,
	}
}

func TestDownloadBookFull(t *testing.T) {
	provider := mockvox.New()
	p, states := newTestPipeline(t, provider)
	root := t.TempDir()
	req := testRequest(t, provider, root)

	result, err := p.DownloadBook(context.Background(), req)
	if err != nil {
		t.Fatalf("DownloadBook failed: %v", err)
	}
	if len(result.Paths) != 5 {
		t.Fatalf("expected 5 chapter paths, got %d", len(result.Paths))
	}
	for i, path := range result.Paths {
		want := filepath.Join(result.Dir, util.ChapterFileName(i))
		if path != want {
			t.Errorf("path %d = %q, want %q", i, path, want)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("chapter %d not written: %v", i, err)
		}
		if string(data) != fmt.Sprintf("audio-bytes-for-chapter-%03d", i+1) {
			t.Errorf("chapter %d has wrong contents: %q", i, data)
		}
	}
	if _, err := os.Stat(filepath.Join(result.Dir, "metadata.json")); err != nil {
		t.Errorf("manifest not written: %v", err)
	}
	// State record is removed once the book completes.
	if _, err := states.Load(req.BookID); !errors.Is(err, state.ErrNotFound) {
		t.Errorf("expected state to be deleted, got %v", err)
	}
	if provider.FetchCalls != 5 {
		t.Errorf("expected 5 fetches, got %d", provider.FetchCalls)
	}
}

func TestDownloadBookResumesFromDisk(t *testing.T) {
	provider := mockvox.New()
	p, _ := newTestPipeline(t, provider)
	root := t.TempDir()
	req := testRequest(t, provider, root)

	// Pre-seed chapters 1 and 3 as if a previous run wrote them.
	bookDir := filepath.Join(root, util.SanitizeFilename(req.Metadata.Title))
	if err := os.MkdirAll(bookDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, idx := range []int{0, 2} {
		path := filepath.Join(bookDir, util.ChapterFileName(idx))
		if err := os.WriteFile(path, []byte("existing"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	result, err := p.DownloadBook(context.Background(), req)
	if err != nil {
		t.Fatalf("DownloadBook failed: %v", err)
	}
	if provider.FetchCalls != 3 {
		t.Errorf("expected 3 fetches for the missing chapters, got %d", provider.FetchCalls)
	}
	// Existing files are kept, not re-downloaded.
	for _, idx := range []int{0, 2} {
		data, err := os.ReadFile(result.Paths[idx])
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "existing" {
			t.Errorf("chapter %d was overwritten", idx)
		}
	}
	if len(result.Paths) != 5 {
		t.Errorf("expected all 5 paths in the result, got %d", len(result.Paths))
	}
}

func TestDownloadBookFailsFast(t *testing.T) {
	provider := mockvox.New()
	provider.FailChapter = 2
	p, states := newTestPipeline(t, provider)
	root := t.TempDir()
	req := testRequest(t, provider, root)

	_, err := p.DownloadBook(context.Background(), req)
	if err == nil {
		t.Fatal("expected an error when chapter 3 fails")
	}

	bookDir := filepath.Join(root, util.SanitizeFilename(req.Metadata.Title))
	// Chapters before the failure stay on disk for a later resume.
	for _, idx := range []int{0, 1} {
		if _, statErr := os.Stat(filepath.Join(bookDir, util.ChapterFileName(idx))); statErr != nil {
			t.Errorf("chapter %d should remain on disk: %v", idx, statErr)
		}
	}
	// Chapters after the failure were never attempted.
	for _, idx := range []int{3, 4} {
		if _, statErr := os.Stat(filepath.Join(bookDir, util.ChapterFileName(idx))); !os.IsNotExist(statErr) {
			t.Errorf("chapter %d should not exist", idx)
		}
	}
	// The resume record survives a failed run.
	st, loadErr := states.Load(req.BookID)
	if loadErr != nil {
		t.Fatalf("expected state to survive the failure: %v", loadErr)
	}
	if len(st.DownloadedChapters) != 2 {
		t.Errorf("expected 2 recorded chapters, got %v", st.DownloadedChapters)
	}
}

func TestDownloadBookRetriesTransientFailures(t *testing.T) {
	provider := mockvox.New()
	provider.TransientFailures = 1
	p, _ := newTestPipeline(t, provider)
	root := t.TempDir()
	req := testRequest(t, provider, root)

	if _, err := p.DownloadBook(context.Background(), req); err != nil {
		t.Fatalf("DownloadBook failed: %v", err)
	}
	// Every chapter fails once then succeeds: two calls each.
	if provider.FetchCalls != 10 {
		t.Errorf("expected 10 fetches, got %d", provider.FetchCalls)
	}
}

func TestDownloadBookInterrupt(t *testing.T) {
	provider := mockvox.New()
	p, _ := newTestPipeline(t, provider)
	root := t.TempDir()
	req := testRequest(t, provider, root)

	interruptErr := errors.New("paused by user")
	calls := 0
	p.Interrupt = func() error {
		calls++
		if calls > 2 {
			return interruptErr
		}
		return nil
	}

	_, err := p.DownloadBook(context.Background(), req)
	if !errors.Is(err, interruptErr) {
		t.Fatalf("expected the interrupt error, got %v", err)
	}
	if provider.FetchCalls != 2 {
		t.Errorf("expected 2 chapters before the interrupt, got %d", provider.FetchCalls)
	}
}

func TestDownloadBookEmptyChapterList(t *testing.T) {
	provider := mockvox.New()
	p, _ := newTestPipeline(t, provider)
	req := BookRequest{
		BookID:     "mockvox-empty",
		Metadata:   &models.BookMetadata{Title: "Empty"},
		OutputRoot: t.TempDir(),
	}
	if _, err := p.DownloadBook(context.Background(), req); err == nil {
		t.Fatal("expected an error for a book with no chapters")
	}
}

func TestDownloadBookReportsProgress(t *testing.T) {
	provider := mockvox.New()
	p, _ := newTestPipeline(t, provider)
	req := testRequest(t, provider, t.TempDir())

	var percents []int
	p.OnProgress = func(pct int) { percents = append(percents, pct) }

	if _, err := p.DownloadBook(context.Background(), req); err != nil {
		t.Fatalf("DownloadBook failed: %v", err)
	}
	want := []int{20, 40, 60, 80, 100}
	if len(percents) != len(want) {
		t.Fatalf("expected %d progress callbacks, got %v", len(want), percents)
	}
	for i, pct := range want {
		if percents[i] != pct {
			t.Errorf("progress %d = %d, want %d", i, percents[i], pct)
		}
	}
}
