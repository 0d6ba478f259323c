package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vrsandeep/tome-go/internal/manifest"
	"github.com/vrsandeep/tome-go/internal/models"
	"github.com/vrsandeep/tome-go/internal/util"
)

// ErrOutputExists is returned when the merged file is already present.
// The engine never overwrites an existing output.
var ErrOutputExists = errors.New("output file already exists")

// outputExt is the container extension for merged books.
const outputExt = ".m4b"

// chapterInfo is the merge-time view of one chapter: its file on disk
// and its computed position on the output timeline.
type chapterInfo struct {
	File     string
	Path     string
	Index    int
	Title    string
	StartMs  int64
	EndMs    int64
	Duration float64
}

// runFunc invokes an external command, returning its stderr on failure.
type runFunc func(ctx context.Context, name string, args ...string) error

// Engine combines downloaded chapter files into a single chaptered
// audiobook container using ffmpeg. The probe, tool runner and cover
// fetcher are injectable so tests run without the binaries installed.
type Engine struct {
	ffmpegPath  string
	ffprobePath string

	probe probeFunc
	run   runFunc
	cover func(url, dir string) (string, error)
}

func New(ffmpegPath, ffprobePath string) *Engine {
	e := &Engine{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		run:         runCommand,
		cover:       fetchCover,
	}
	e.probe = func(ctx context.Context, path string) (float64, error) {
		return ffprobeDuration(ctx, e.ffprobePath, path)
	}
	return e
}

// MergeBook merges the chapter files in bookDir into
// <sanitizedTitle>.m4b alongside them, embedding tags, chapter markers
// and cover art from the book's metadata file. Steps run sequentially
// and any failure aborts the whole merge; the temp directory is
// removed on every path.
func (e *Engine) MergeBook(ctx context.Context, bookDir string) (string, error) {
	info, err := os.Stat(bookDir)
	if err != nil {
		return "", fmt.Errorf("cannot access book directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", bookDir)
	}

	m, err := manifest.Read(bookDir)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(m.Metadata.Title) == "" {
		return "", fmt.Errorf("metadata is missing a title")
	}
	if len(m.Metadata.Authors) == 0 {
		return "", fmt.Errorf("metadata is missing authors")
	}

	names, err := collectChapterNames(bookDir)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(bookDir, util.SanitizeFilename(m.Metadata.Title)+outputExt)
	if _, err := os.Stat(outputPath); err == nil {
		return "", fmt.Errorf("%w: %s", ErrOutputExists, outputPath)
	}

	chapters, err := e.buildTimeline(ctx, bookDir, names, m)
	if err != nil {
		return "", err
	}

	tempDir, err := os.MkdirTemp("", "tome-merge-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	paths := make([]string, len(chapters))
	for i, ch := range chapters {
		abs, err := filepath.Abs(ch.Path)
		if err != nil {
			return "", err
		}
		paths[i] = abs
	}

	concatPath := filepath.Join(tempDir, "concat.txt")
	if err := os.WriteFile(concatPath, []byte(buildConcatList(paths)), 0644); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}

	metaPath := filepath.Join(tempDir, "ffmetadata.txt")
	if err := os.WriteFile(metaPath, []byte(buildFFMetadata(&m.Metadata, chapters)), 0644); err != nil {
		return "", fmt.Errorf("failed to write metadata file: %w", err)
	}

	// Cover art is best-effort.
	coverPath := ""
	if m.Metadata.CoverURL != "" {
		coverPath, err = e.cover(m.Metadata.CoverURL, tempDir)
		if err != nil {
			log.Printf("Warning: skipping cover art: %v", err)
			coverPath = ""
		}
	}

	args := []string{
		"-f", "concat", "-safe", "0", "-i", concatPath,
		"-i", metaPath,
	}
	if coverPath != "" {
		args = append(args, "-i", coverPath)
	}
	args = append(args, "-map_metadata", "1", "-map", "0:a")
	if coverPath != "" {
		args = append(args, "-map", "2:v", "-c:v", "copy", "-disposition:v", "attached_pic")
	}
	args = append(args, "-c:a", "aac", "-b:a", "64k", "-movflags", "+faststart", outputPath)

	if err := e.run(ctx, e.ffmpegPath, args...); err != nil {
		return "", err
	}
	return outputPath, nil
}

// collectChapterNames finds the chapter files in bookDir and orders
// them by the numeric index in each name, never lexically.
func collectChapterNames(bookDir string) ([]string, error) {
	entries, err := os.ReadDir(bookDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := util.ParseChapterIndex(entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no chapter files found in %s", bookDir)
	}
	util.SortChapterFiles(names)
	return names, nil
}

// buildTimeline lays the chapters out on a contiguous millisecond
// timeline. A failed probe falls back to the duration recorded in the
// metadata file rather than failing the merge.
func (e *Engine) buildTimeline(ctx context.Context, bookDir string, names []string, m *models.BookManifest) ([]chapterInfo, error) {
	chapters := make([]chapterInfo, 0, len(names))
	var startMs int64
	for _, name := range names {
		idx, _ := util.ParseChapterIndex(name)

		dur, probeErr := e.probe(ctx, filepath.Join(bookDir, name))
		if probeErr != nil {
			fallback, ok := manifest.ChapterDuration(m, idx)
			if !ok {
				return nil, fmt.Errorf("could not determine duration of %s: %w", name, probeErr)
			}
			log.Printf("Warning: probe failed for %s, using recorded duration: %v", name, probeErr)
			dur = fallback
		}

		endMs := startMs + int64(math.Round(dur*1000))
		chapters = append(chapters, chapterInfo{
			File:     name,
			Path:     filepath.Join(bookDir, name),
			Index:    idx,
			Title:    manifest.ChapterTitle(m, idx),
			StartMs:  startMs,
			EndMs:    endMs,
			Duration: dur,
		})
		startMs = endMs
	}
	return chapters, nil
}

// runCommand executes the tool, surfacing its stderr when it fails so
// the original diagnostic is not lost.
func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
