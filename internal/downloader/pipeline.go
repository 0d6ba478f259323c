package downloader

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/vrsandeep/tome-go/internal/events"
	"github.com/vrsandeep/tome-go/internal/manifest"
	"github.com/vrsandeep/tome-go/internal/models"
	"github.com/vrsandeep/tome-go/internal/retry"
	"github.com/vrsandeep/tome-go/internal/state"
	"github.com/vrsandeep/tome-go/internal/stealth"
	"github.com/vrsandeep/tome-go/internal/util"
)

// BookRequest describes one book to acquire.
type BookRequest struct {
	ItemID     int64 // download queue row, 0 outside the queue
	BookID     string
	Metadata   *models.BookMetadata
	Chapters   []models.ChapterRef
	OutputRoot string
	Merge      bool
}

// BookResult is returned after a successful download.
type BookResult struct {
	Dir   string
	Paths []string // all chapter paths in original order, resumed ones included
}

// Pipeline downloads a book's chapters sequentially, composing the
// rate limiter, retry executor and resume state store. Chapters are
// never fetched in parallel: the pacing is the anti-throttling
// mechanism, and the provider session is a single shared resource.
type Pipeline struct {
	provider     models.Provider
	limiter      *stealth.Limiter
	retrier      *retry.Executor
	states       *state.Store
	hub          *events.Hub
	fetchTimeout time.Duration

	// Interrupt, when set, is polled before each chapter; returning a
	// non-nil error halts the pipeline with that error. The worker uses
	// it to honor per-item pause requests.
	Interrupt func() error
	// OnProgress, when set, receives the completion percentage after
	// every chapter.
	OnProgress func(percent int)
}

// NewPipeline assembles a pipeline. All collaborators are injected so
// tests can substitute fakes.
func NewPipeline(provider models.Provider, limiter *stealth.Limiter, retrier *retry.Executor, states *state.Store, hub *events.Hub, fetchTimeout time.Duration) *Pipeline {
	return &Pipeline{
		provider:     provider,
		limiter:      limiter,
		retrier:      retrier,
		states:       states,
		hub:          hub,
		fetchTimeout: fetchTimeout,
	}
}

// DownloadBook runs the per-chapter state machine for req. Chapters
// already on disk are skipped; the rest are fetched in order. One
// unrecoverable chapter aborts the whole book rather than skipping
// ahead. On full completion the resume record is deleted.
func (p *Pipeline) DownloadBook(ctx context.Context, req BookRequest) (*BookResult, error) {
	if len(req.Chapters) == 0 {
		return nil, fmt.Errorf("book '%s' has no chapters", req.BookID)
	}

	bookDir := filepath.Join(req.OutputRoot, util.SanitizeFilename(req.Metadata.Title))
	if err := os.MkdirAll(bookDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create book directory: %w", err)
	}
	if err := manifest.Write(bookDir, manifest.Build(req.Metadata, req.Chapters)); err != nil {
		return nil, err
	}

	p.ensureState(req, bookDir)

	total := len(req.Chapters)
	present := p.scanExisting(bookDir, total)
	if n := len(present); n > 0 {
		log.Printf("Resuming '%s': %d of %d chapters already on disk", req.Metadata.Title, n, total)
	}

	paths := make([]string, total)
	for _, ch := range req.Chapters {
		paths[ch.Index] = filepath.Join(bookDir, util.ChapterFileName(ch.Index))
	}

	remaining := 0
	for _, ch := range req.Chapters {
		if !present[ch.Index] {
			remaining++
		}
	}

	downloaded := 0
	for _, ch := range req.Chapters {
		if present[ch.Index] {
			// Already on disk from a previous run; keep the state
			// record consistent with what resume saw.
			p.markDone(req.BookID, ch.Index)
			continue
		}

		if p.Interrupt != nil {
			if err := p.Interrupt(); err != nil {
				return nil, err
			}
		}

		if err := p.downloadChapter(ctx, req, ch, paths[ch.Index], total); err != nil {
			p.publish(req, models.ProgressUpdate{
				Event:   models.EventChapterError,
				Chapter: ch.Index + 1,
				Message: fmt.Sprintf("Chapter %d failed: %v", ch.Index+1, err),
				Status:  "failed",
			})
			// Fail fast: a single unrecoverable chapter halts the book.
			return nil, fmt.Errorf("chapter %d: %w", ch.Index+1, err)
		}

		downloaded++
		// Pace between chapters, never after the last one.
		if downloaded < remaining {
			if err := p.pace(ctx, req); err != nil {
				return nil, err
			}
		}
	}

	// Full completion: the resume record has served its purpose.
	if err := p.states.Delete(req.BookID); err != nil {
		log.Printf("Warning: could not delete state for '%s': %v", req.BookID, err)
	}

	return &BookResult{Dir: bookDir, Paths: paths}, nil
}

// downloadChapter fetches one chapter with retries and writes it to
// disk. Each attempt runs under the fixed fetch timeout so a hung
// transfer turns into a retryable failure.
func (p *Pipeline) downloadChapter(ctx context.Context, req BookRequest, ch models.ChapterRef, path string, total int) error {
	p.publish(req, models.ProgressUpdate{
		Event:   models.EventChapterStart,
		Chapter: ch.Index + 1,
		Message: fmt.Sprintf("Downloading chapter %d of %d", ch.Index+1, total),
		Status:  "in_progress",
	})

	var data []byte
	err := p.retrier.Do(ctx, func(ctx context.Context) error {
		fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
		var fetchErr error
		data, fetchErr = p.provider.FetchChapter(fetchCtx, ch)
		return fetchErr
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write chapter file: %w", err)
	}

	p.markDone(req.BookID, ch.Index)

	progress := int(float64(p.countDone(req.BookID)) / float64(total) * 100)
	if p.OnProgress != nil {
		p.OnProgress(progress)
	}
	p.publish(req, models.ProgressUpdate{
		Event:    models.EventChapterComplete,
		Chapter:  ch.Index + 1,
		Bytes:    int64(len(data)),
		Progress: float64(progress),
		Message:  fmt.Sprintf("Downloaded chapter %d of %d (%d bytes)", ch.Index+1, total, len(data)),
		Status:   "in_progress",
	})
	return nil
}

// pace applies the inter-chapter delay and, when the break policy
// fires, surfaces the rest period as break events.
func (p *Pipeline) pace(ctx context.Context, req BookRequest) error {
	err := p.limiter.OnChapterDownloaded(ctx, func(phase stealth.BreakPhase, d time.Duration) {
		event := models.EventBreakStart
		msg := fmt.Sprintf("Taking a %s break", d.Round(time.Second))
		if phase == stealth.BreakEnd {
			event = models.EventBreakEnd
			msg = "Break finished"
		}
		p.publish(req, models.ProgressUpdate{Event: event, Message: msg, Status: "in_progress"})
	})
	if err != nil {
		return err
	}
	return p.limiter.Wait(ctx)
}

// ensureState creates the resume record if none exists. State tracking
// is best-effort and must never abort a download, so failures are only
// logged.
func (p *Pipeline) ensureState(req BookRequest, bookDir string) {
	if _, err := p.states.Load(req.BookID); err == nil {
		return
	}
	st := &models.DownloadState{
		BookID:        req.BookID,
		BookTitle:     req.Metadata.Title,
		TotalChapters: len(req.Chapters),
		OutputDir:     bookDir,
		Mode:          "download",
		Merge:         req.Merge,
		Metadata:      *req.Metadata,
	}
	if req.Merge {
		st.Mode = "download+merge"
	}
	if err := p.states.Save(st); err != nil {
		log.Printf("Warning: could not persist state for '%s': %v", req.BookID, err)
	}
}

func (p *Pipeline) markDone(bookID string, index int) {
	if err := p.states.MarkChapterDone(bookID, index); err != nil {
		log.Printf("Warning: could not record chapter %d for '%s': %v", index+1, bookID, err)
	}
}

// scanExisting finds chapters already on disk by the numeric index
// embedded in each file name. Indices beyond the current chapter list
// are ignored.
func (p *Pipeline) scanExisting(bookDir string, total int) map[int]bool {
	present := make(map[int]bool)
	entries, err := os.ReadDir(bookDir)
	if err != nil {
		return present
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if idx, ok := util.ParseChapterIndex(entry.Name()); ok && idx < total {
			present[idx] = true
		}
	}
	return present
}

func (p *Pipeline) publish(req BookRequest, update models.ProgressUpdate) {
	if p.hub == nil {
		return
	}
	update.JobID = "downloader"
	update.ItemID = req.ItemID
	update.BookID = req.BookID
	p.hub.Publish(update)
}

func (p *Pipeline) countDone(bookID string) int {
	st, err := p.states.Load(bookID)
	if err != nil {
		return 0
	}
	return len(st.DownloadedChapters)
}
