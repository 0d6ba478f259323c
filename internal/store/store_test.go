package store_test

import (
	"testing"

	"github.com/vrsandeep/tome-go/internal/store"
	"github.com/vrsandeep/tome-go/internal/testutil"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testutil.SetupTestDB(t))
}

func TestAddBookToQueue(t *testing.T) {
	s := setupStore(t)

	if err := s.AddBookToQueue("Dracula", "dracula-123", "librivox", true); err != nil {
		t.Fatalf("AddBookToQueue failed: %v", err)
	}
	// Re-queuing the same book from the same provider is a no-op.
	if err := s.AddBookToQueue("Dracula", "dracula-123", "librivox", true); err != nil {
		t.Fatalf("duplicate AddBookToQueue failed: %v", err)
	}

	items, err := s.GetDownloadQueue()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.BookTitle != "Dracula" || item.ProviderID != "librivox" || !item.Merge {
		t.Errorf("unexpected item: %+v", item)
	}
	if item.Status != "queued" {
		t.Errorf("new items should be queued, got %q", item.Status)
	}
}

func TestGetQueuedDownloadItems(t *testing.T) {
	s := setupStore(t)

	s.AddBookToQueue("First", "id-1", "mockvox", false)
	s.AddBookToQueue("Second", "id-2", "mockvox", false)
	s.AddBookToQueue("Third", "id-3", "mockvox", false)

	items, err := s.GetQueuedDownloadItems(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	// A paused item no longer shows up as queued.
	if err := s.PauseQueueItem(items[0].ID); err != nil {
		t.Fatal(err)
	}
	items, err = s.GetQueuedDownloadItems(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 queued items after pausing one, got %d", len(items))
	}
}

func TestStatusTransitions(t *testing.T) {
	s := setupStore(t)
	s.AddBookToQueue("Book", "id-1", "mockvox", false)
	items, _ := s.GetDownloadQueue()
	id := items[0].ID

	if err := s.UpdateQueueItemStatus(id, "in_progress", "Starting download..."); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateQueueItemProgress(id, 40); err != nil {
		t.Fatal(err)
	}

	item, err := s.GetDownloadQueueItem(id)
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != "in_progress" || item.Progress != 40 {
		t.Errorf("unexpected item state: %+v", item)
	}

	// Items interrupted mid-download get re-queued on startup.
	if err := s.ResetInProgressQueueItems(); err != nil {
		t.Fatal(err)
	}
	item, _ = s.GetDownloadQueueItem(id)
	if item.Status != "queued" {
		t.Errorf("expected re-queued item, got %q", item.Status)
	}
}

func TestPauseResumeRetry(t *testing.T) {
	s := setupStore(t)
	s.AddBookToQueue("Book", "id-1", "mockvox", false)
	items, _ := s.GetDownloadQueue()
	id := items[0].ID

	if err := s.PauseQueueItem(id); err != nil {
		t.Fatal(err)
	}
	item, _ := s.GetDownloadQueueItem(id)
	if item.Status != "paused" {
		t.Errorf("expected paused, got %q", item.Status)
	}

	if err := s.ResumeQueueItem(id); err != nil {
		t.Fatal(err)
	}
	item, _ = s.GetDownloadQueueItem(id)
	if item.Status != "queued" {
		t.Errorf("expected queued, got %q", item.Status)
	}

	// Retry only applies to failed items.
	if err := s.RetryQueueItem(id); err == nil {
		t.Error("expected retry of a non-failed item to error")
	}
	s.UpdateQueueItemStatus(id, "failed", "boom")
	if err := s.RetryQueueItem(id); err != nil {
		t.Errorf("retry of failed item errored: %v", err)
	}

	if err := s.PauseQueueItem(99999); err == nil {
		t.Error("expected pausing a missing item to error")
	}
}

func TestBulkActions(t *testing.T) {
	s := setupStore(t)
	s.AddBookToQueue("A", "id-1", "mockvox", false)
	s.AddBookToQueue("B", "id-2", "mockvox", false)
	s.AddBookToQueue("C", "id-3", "mockvox", false)
	items, _ := s.GetDownloadQueue()

	s.UpdateQueueItemStatus(items[0].ID, "failed", "boom")
	s.UpdateQueueItemStatus(items[1].ID, "completed", "done")

	if err := s.ResetFailedQueueItems(); err != nil {
		t.Fatal(err)
	}
	item, _ := s.GetDownloadQueueItem(items[0].ID)
	if item.Status != "queued" {
		t.Errorf("failed item was not re-queued: %q", item.Status)
	}

	if err := s.DeleteCompletedQueueItems(); err != nil {
		t.Fatal(err)
	}
	remaining, _ := s.GetDownloadQueue()
	if len(remaining) != 2 {
		t.Errorf("expected 2 items after deleting completed, got %d", len(remaining))
	}

	if err := s.PauseAllQueueItems(); err != nil {
		t.Fatal(err)
	}
	queued, _ := s.GetQueuedDownloadItems(10)
	if len(queued) != 0 {
		t.Errorf("expected no queued items after pause all, got %d", len(queued))
	}
	if err := s.ResumeAllQueueItems(); err != nil {
		t.Fatal(err)
	}
	queued, _ = s.GetQueuedDownloadItems(10)
	if len(queued) != 2 {
		t.Errorf("expected 2 queued items after resume all, got %d", len(queued))
	}

	if err := s.EmptyQueue(); err != nil {
		t.Fatal(err)
	}
	remaining, _ = s.GetDownloadQueue()
	if len(remaining) != 0 {
		t.Errorf("expected empty queue, got %d items", len(remaining))
	}
}

func TestDeleteCompletedOlderThan(t *testing.T) {
	s := setupStore(t)
	s.AddBookToQueue("Old", "id-1", "mockvox", false)
	items, _ := s.GetDownloadQueue()
	s.UpdateQueueItemStatus(items[0].ID, "completed", "done")

	// Completed just now, so a 7 day cutoff removes nothing.
	n, err := s.DeleteCompletedOlderThan(7)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 removed, got %d", n)
	}

	// A cutoff in the future removes it.
	n, err = s.DeleteCompletedOlderThan(-1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}
}
