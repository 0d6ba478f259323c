// Package state persists resumable per-book download progress. Each
// book gets one JSON document under the state directory, named by its
// bookId. Tracking is best-effort: callers log and swallow persistence
// failures rather than aborting an in-progress download.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vrsandeep/tome-go/internal/models"
	"github.com/vrsandeep/tome-go/internal/util"
)

// ErrNotFound is returned when no resume record exists for a book.
var ErrNotFound = errors.New("download state not found")

// Store reads and writes resume records. It is explicitly constructed
// and injected so tests can use isolated temp-backed instances.
type Store struct {
	dir string
	now func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) path(bookID string) string {
	return filepath.Join(s.dir, util.SanitizeFilename(bookID)+".json")
}

// Save writes or overwrites the record for state.BookID, refreshing
// LastUpdatedAt. The write is atomic (temp file + rename) so a crash
// never leaves a truncated record behind.
func (s *Store) Save(state *models.DownloadState) error {
	state.LastUpdatedAt = s.now()
	if state.StartedAt.IsZero() {
		state.StartedAt = state.LastUpdatedAt
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode download state: %w", err)
	}

	final := s.path(state.BookID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write download state: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write download state: %w", err)
	}
	return nil
}

// Load returns the record for bookID, or ErrNotFound.
func (s *Store) Load(bookID string) (*models.DownloadState, error) {
	data, err := os.ReadFile(s.path(bookID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read download state: %w", err)
	}
	var state models.DownloadState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode download state: %w", err)
	}
	return &state, nil
}

// MarkChapterDone records the zero-based chapter index as downloaded.
// Duplicate calls are no-ops; the set stays sorted. Indices outside
// [0, totalChapters) are rejected.
func (s *Store) MarkChapterDone(bookID string, index int) error {
	state, err := s.Load(bookID)
	if err != nil {
		return err
	}
	if index < 0 || index >= state.TotalChapters {
		return fmt.Errorf("chapter index %d out of range [0, %d)", index, state.TotalChapters)
	}

	pos := sort.SearchInts(state.DownloadedChapters, index)
	if pos < len(state.DownloadedChapters) && state.DownloadedChapters[pos] == index {
		return nil // already recorded
	}
	state.DownloadedChapters = append(state.DownloadedChapters, 0)
	copy(state.DownloadedChapters[pos+1:], state.DownloadedChapters[pos:])
	state.DownloadedChapters[pos] = index

	return s.Save(state)
}

// Delete removes the record for bookID. Missing records are a no-op.
func (s *Store) Delete(bookID string) error {
	err := os.Remove(s.path(bookID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete download state: %w", err)
	}
	return nil
}

// Progress returns the completion percentage for bookID, or 0 when no
// record exists.
func (s *Store) Progress(bookID string) float64 {
	state, err := s.Load(bookID)
	if err != nil || state.TotalChapters == 0 {
		return 0
	}
	return float64(len(state.DownloadedChapters)) / float64(state.TotalChapters) * 100
}

// List returns every persisted record, for status reporting.
func (s *Store) List() ([]*models.DownloadState, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}
	var states []*models.DownloadState
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var state models.DownloadState
		if err := json.Unmarshal(data, &state); err != nil {
			continue
		}
		states = append(states, &state)
	}
	return states, nil
}

// PurgeOlderThan deletes every record whose LastUpdatedAt predates the
// cutoff, returning how many were removed.
func (s *Store) PurgeOlderThan(days int) (int, error) {
	states, err := s.List()
	if err != nil {
		return 0, err
	}
	cutoff := s.now().AddDate(0, 0, -days)
	removed := 0
	for _, state := range states {
		if state.LastUpdatedAt.Before(cutoff) {
			if err := s.Delete(state.BookID); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
