// Package manifest reads and writes the metadata.json document stored
// next to a book's chapter files. The downloader writes it right after
// extraction; the merge engine requires it for tagging and uses its
// durations as a fallback when probing fails.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vrsandeep/tome-go/internal/models"
)

// FileName is the manifest's name inside a book directory.
const FileName = "metadata.json"

// ErrNotFound is returned when a book directory has no manifest.
var ErrNotFound = errors.New("metadata not found")

// Build assembles a manifest from extracted metadata and chapter refs.
func Build(meta *models.BookMetadata, chapters []models.ChapterRef) *models.BookManifest {
	m := &models.BookManifest{Metadata: *meta}
	for _, ch := range chapters {
		m.Chapters = append(m.Chapters, models.ManifestChapter{
			Index:    ch.Index,
			Title:    ch.Title,
			Duration: ch.DurationSeconds,
		})
	}
	return m
}

// Write persists the manifest into dir.
func Write(dir string, m *models.BookManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Read loads the manifest from dir, returning ErrNotFound when the
// file does not exist.
func Read(dir string) (*models.BookManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m models.BookManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// ChapterTitle returns the recorded title for a zero-based index, or a
// generated "Chapter N" fallback.
func ChapterTitle(m *models.BookManifest, index int) string {
	for _, ch := range m.Chapters {
		if ch.Index == index && ch.Title != "" {
			return ch.Title
		}
	}
	return fmt.Sprintf("Chapter %d", index+1)
}

// ChapterDuration returns the recorded duration in seconds for a
// zero-based index. The second return value reports whether the
// manifest has an entry for that index.
func ChapterDuration(m *models.BookManifest, index int) (float64, bool) {
	for _, ch := range m.Chapters {
		if ch.Index == index {
			return ch.Duration, true
		}
	}
	return 0, false
}
