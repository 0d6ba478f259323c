package downloader

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vrsandeep/tome-go/internal/core"
	"github.com/vrsandeep/tome-go/internal/downloader/providers"
	"github.com/vrsandeep/tome-go/internal/merge"
	"github.com/vrsandeep/tome-go/internal/models"
	"github.com/vrsandeep/tome-go/internal/retry"
	"github.com/vrsandeep/tome-go/internal/store"
	"github.com/vrsandeep/tome-go/internal/util"
)

var (
	jobQueue          chan *models.DownloadQueueItem
	isPaused          bool
	mu                sync.Mutex
	ErrDownloadPaused = fmt.Errorf("download paused by user")
)

// StartWorkerPool starts the single download worker and the poller
// that feeds it. Books are processed one at a time: the pacing between
// chapters only means something when nothing else is hammering the
// provider in parallel.
func StartWorkerPool(app *core.App) {
	jobQueue = make(chan *models.DownloadQueueItem, 1)
	st := store.New(app.DB())

	// On startup, re-queue any items that were "in_progress".
	st.ResetInProgressQueueItems()

	go worker(app, st)

	// Periodically fetch the next queued book, gated by the hourly quota.
	go func() {
		for {
			mu.Lock()
			paused := isPaused
			mu.Unlock()

			if !paused && len(jobQueue) == 0 && app.Limiter().CanStartBook() {
				items, err := st.GetQueuedDownloadItems(1)
				if err != nil {
					log.Printf("Error fetching queued items: %v", err)
				} else {
					for _, item := range items {
						jobQueue <- item
					}
				}
			}
			time.Sleep(5 * time.Second)
		}
	}()
}

func worker(app *core.App, st *store.Store) {
	log.Println("Starting download worker")
	for job := range jobQueue {
		st.UpdateQueueItemStatus(job.ID, "in_progress", "Starting download...")
		err := processBook(context.Background(), app, st, job)
		if err != nil {
			if err == ErrDownloadPaused {
				log.Printf("Download paused for item %d", job.ID)
				// Status is already "paused", set by the API.
				continue
			}
			errMsg := fmt.Sprintf("Download failed: %v", err)
			log.Println(errMsg)
			st.UpdateQueueItemStatus(job.ID, "failed", errMsg)
			sendProgressUpdate(app, job.ID, errMsg, "failed", float64(job.Progress), models.EventBookError, true)
		} else {
			st.UpdateQueueItemStatus(job.ID, "completed", "Download finished successfully.")
			sendProgressUpdate(app, job.ID, "Download finished successfully.", "completed", 100, models.EventBookComplete, true)
		}
	}
}

// processBook resolves the provider, fetches the chapter list and runs
// the download pipeline, optionally merging the result into a single
// chaptered file.
func processBook(ctx context.Context, app *core.App, st *store.Store, job *models.DownloadQueueItem) error {
	provider, ok := providers.Get(job.ProviderID)
	if !ok {
		return fmt.Errorf("provider '%s' not found", job.ProviderID)
	}

	meta, chapters, err := provider.GetBook(job.BookIdentifier)
	if err != nil {
		return fmt.Errorf("could not get book details: %w", err)
	}
	if len(chapters) == 0 {
		return fmt.Errorf("no chapters found for book")
	}

	app.Limiter().BookStarted()

	cfg := app.Config()
	pipeline := NewPipeline(
		provider,
		app.Limiter(),
		retry.New(retry.DefaultPolicy()),
		app.StateStore(),
		app.Hub(),
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second,
	)
	pipeline.Interrupt = func() error {
		currentItem, err := st.GetDownloadQueueItem(job.ID)
		if err == nil && currentItem != nil && currentItem.Status == "paused" {
			return ErrDownloadPaused
		}
		return nil
	}
	pipeline.OnProgress = func(percent int) {
		st.UpdateQueueItemProgress(job.ID, percent)
	}

	result, err := pipeline.DownloadBook(ctx, BookRequest{
		ItemID:     job.ID,
		BookID:     BookID(job.ProviderID, job.BookIdentifier),
		Metadata:   meta,
		Chapters:   chapters,
		OutputRoot: cfg.Output.Path,
		Merge:      job.Merge,
	})
	if err != nil {
		return err
	}

	if job.Merge && cfg.Merge.Enabled {
		sendProgressUpdate(app, job.ID, "Merging chapters...", "in_progress", 100, models.EventMergeStart, false)
		engine := merge.New(cfg.Merge.FFmpegPath, cfg.Merge.FFprobePath)
		outPath, err := engine.MergeBook(ctx, result.Dir)
		if err != nil {
			return fmt.Errorf("merge failed: %w", err)
		}
		log.Printf("Merged '%s' into %s", meta.Title, outPath)
		sendProgressUpdate(app, job.ID, "Merge complete.", "in_progress", 100, models.EventMergeComplete, false)
	}

	return nil
}

// BookID derives the stable resume identifier for a queue item.
func BookID(providerID, identifier string) string {
	return providerID + "-" + util.SanitizeFilename(identifier)
}

// Control functions for the download queue
func PauseDownloads() { mu.Lock(); isPaused = true; mu.Unlock(); log.Println("Download queue paused.") }
func ResumeDownloads() {
	mu.Lock()
	isPaused = false
	mu.Unlock()
	log.Println("Download queue resumed.")
}
func IsPaused() bool { mu.Lock(); defer mu.Unlock(); return isPaused }

// PauseQueueItem pauses a specific item and broadcasts the status change.
func PauseQueueItem(app *core.App, st *store.Store, itemID int64) error {
	if err := st.PauseQueueItem(itemID); err != nil {
		return err
	}

	progress := 0.0
	if currentItem, err := st.GetDownloadQueueItem(itemID); err == nil && currentItem != nil {
		progress = float64(currentItem.Progress)
	}
	sendProgressUpdate(app, itemID, "Download paused by user", "paused", progress, "", false)
	return nil
}

// ResumeQueueItem resumes a specific item and broadcasts the status change.
func ResumeQueueItem(app *core.App, st *store.Store, itemID int64) error {
	if err := st.ResumeQueueItem(itemID); err != nil {
		return err
	}

	progress := 0.0
	if currentItem, err := st.GetDownloadQueueItem(itemID); err == nil && currentItem != nil {
		progress = float64(currentItem.Progress)
	}
	sendProgressUpdate(app, itemID, "Download resumed by user", "queued", progress, "", false)
	return nil
}

func sendProgressUpdate(app *core.App, itemID int64, message, status string, progress float64, event string, done bool) {
	app.Hub().Publish(models.ProgressUpdate{
		JobID:    "downloader",
		Event:    event,
		Message:  message,
		Progress: progress,
		ItemID:   itemID,
		Status:   status,
		Done:     done,
	})
}
