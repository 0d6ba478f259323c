package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/vrsandeep/tome-go/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func testState(bookID string, total int) *models.DownloadState {
	return &models.DownloadState{
		BookID:        bookID,
		BookTitle:     "A Test Book",
		TotalChapters: total,
		OutputDir:     "/tmp/out",
		Mode:          "download",
		Metadata:      models.BookMetadata{Title: "A Test Book", Authors: []string{"Someone"}},
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	in := testState("librivox-123", 10)
	if err := s.Save(in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if in.LastUpdatedAt.IsZero() || in.StartedAt.IsZero() {
		t.Error("Save did not stamp timestamps")
	}

	out, err := s.Load("librivox-123")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out.BookTitle != "A Test Book" || out.TotalChapters != 10 {
		t.Errorf("loaded record mismatch: %+v", out)
	}
}

func TestLoadMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkChapterDoneIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(testState("b1", 5)); err != nil {
		t.Fatal(err)
	}

	for _, idx := range []int{3, 0, 3, 1, 0} {
		if err := s.MarkChapterDone("b1", idx); err != nil {
			t.Fatalf("MarkChapterDone(%d) failed: %v", idx, err)
		}
	}

	st, err := s.Load("b1")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 3}
	if !reflect.DeepEqual(st.DownloadedChapters, want) {
		t.Errorf("DownloadedChapters = %v, want %v (sorted, no duplicates)", st.DownloadedChapters, want)
	}
}

func TestMarkChapterDoneOutOfRange(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(testState("b1", 5)); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkChapterDone("b1", 5); err == nil {
		t.Error("expected error for index == totalChapters")
	}
	if err := s.MarkChapterDone("b1", -1); err == nil {
		t.Error("expected error for negative index")
	}

	st, _ := s.Load("b1")
	if len(st.DownloadedChapters) != 0 {
		t.Errorf("rejected indices must not be recorded, got %v", st.DownloadedChapters)
	}
}

func TestDeleteIsNoOpWhenAbsent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Delete("never-existed"); err != nil {
		t.Errorf("Delete of missing record returned %v", err)
	}
}

func TestProgress(t *testing.T) {
	s := newTestStore(t)
	if got := s.Progress("missing"); got != 0 {
		t.Errorf("Progress of missing record = %f, want 0", got)
	}

	if err := s.Save(testState("b1", 4)); err != nil {
		t.Fatal(err)
	}
	s.MarkChapterDone("b1", 0)
	s.MarkChapterDone("b1", 2)

	if got := s.Progress("b1"); got != 50 {
		t.Errorf("Progress = %f, want 50", got)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	s, err := New(t.TempDir(), WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatal(err)
	}

	// An old record, last touched 40 days ago.
	clock = now.AddDate(0, 0, -40)
	if err := s.Save(testState("old-book", 3)); err != nil {
		t.Fatal(err)
	}
	// A fresh one.
	clock = now
	if err := s.Save(testState("fresh-book", 3)); err != nil {
		t.Fatal(err)
	}

	removed, err := s.PurgeOlderThan(30)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d records, want 1", removed)
	}
	if _, err := s.Load("old-book"); !errors.Is(err, ErrNotFound) {
		t.Error("old record should have been purged")
	}
	if _, err := s.Load("fresh-book"); err != nil {
		t.Errorf("fresh record should survive, got %v", err)
	}
}

func TestBookIDSanitizedInFilename(t *testing.T) {
	s := newTestStore(t)
	id := "provider/with:odd*chars"
	if err := s.Save(testState(id, 2)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := s.Load(id); err != nil {
		t.Errorf("round trip with unsafe id failed: %v", err)
	}
}
