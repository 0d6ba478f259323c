package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/vrsandeep/tome-go/internal/manifest"
	"github.com/vrsandeep/tome-go/internal/models"
	"github.com/vrsandeep/tome-go/internal/util"
)

// CreateBookDir lays out a downloaded book on disk: one chapter file
// per duration plus the metadata.json manifest. Returns the directory.
func CreateBookDir(t *testing.T, root, title string, durations []float64) string {
	t.Helper()

	dir := filepath.Join(root, util.SanitizeFilename(title))
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create book dir: %v", err)
	}

	meta := &models.BookMetadata{
		Title:   title,
		Authors: []string{"Test Author"},
	}
	var chapters []models.ChapterRef
	for i, dur := range durations {
		chapters = append(chapters, models.ChapterRef{
			Index:           i,
			Title:           fmt.Sprintf("Chapter %d", i+1),
			DurationSeconds: dur,
		})
		path := filepath.Join(dir, util.ChapterFileName(i))
		if err := os.WriteFile(path, []byte(fmt.Sprintf("audio-%d", i)), 0644); err != nil {
			t.Fatalf("Failed to write chapter file: %v", err)
		}
	}
	if err := manifest.Write(dir, manifest.Build(meta, chapters)); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	return dir
}
