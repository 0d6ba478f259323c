// A mock provider for development and testing purposes. It simulates
// searching and fetching from a real lending service without making
// network calls.
package mockvox

import (
	"context"
	"fmt"

	"github.com/vrsandeep/tome-go/internal/models"
)

const chapterCount = 5

type MockvoxProvider struct {
	// FailChapter makes FetchChapter fail permanently for the given
	// zero-based index; -1 disables it.
	FailChapter int
	// TransientFailures makes every chapter fail this many times before
	// succeeding, wrapped as a transient error by the caller's policy.
	TransientFailures int
	FetchErr          error

	attempts map[int]int
	// FetchCalls counts every FetchChapter invocation.
	FetchCalls int
}

func New() *MockvoxProvider {
	return &MockvoxProvider{FailChapter: -1, attempts: make(map[int]int)}
}

func (p *MockvoxProvider) GetInfo() models.ProviderInfo {
	return models.ProviderInfo{
		ID:   "mockvox",
		Name: "Mockvox",
	}
}

func (p *MockvoxProvider) Search(query string) ([]models.SearchResult, error) {
	var results []models.SearchResult
	for i := 1; i <= 10; i++ {
		results = append(results, models.SearchResult{
			Title:      fmt.Sprintf("%s - Result %d", query, i),
			Author:     "Mock Author",
			CoverURL:   fmt.Sprintf("https://placehold.co/400x600?text=Cover+%d", i),
			Identifier: fmt.Sprintf("mock-book-%d", i),
		})
	}
	return results, nil
}

func (p *MockvoxProvider) GetBook(identifier string) (*models.BookMetadata, []models.ChapterRef, error) {
	meta := &models.BookMetadata{
		Title:    fmt.Sprintf("Mock Book %s", identifier),
		Authors:  []string{"Mock Author"},
		Narrator: "Mock Narrator",
		Description: &models.Description{
			Full:  "A book that exists only to be downloaded in tests.",
			Short: "A mock book.",
		},
	}
	var chapters []models.ChapterRef
	start := 0.0
	for i := 0; i < chapterCount; i++ {
		dur := float64(60 * (i + 1))
		chapters = append(chapters, models.ChapterRef{
			Index:            i,
			Title:            fmt.Sprintf("Chapter %d", i+1),
			URL:              fmt.Sprintf("https://mockvox.invalid/%s/chapter-%d.mp3", identifier, i+1),
			DurationSeconds:  dur,
			StartTimeSeconds: start,
		})
		start += dur
	}
	return meta, chapters, nil
}

func (p *MockvoxProvider) FetchChapter(ctx context.Context, ref models.ChapterRef) ([]byte, error) {
	p.FetchCalls++
	if p.FailChapter == ref.Index {
		if p.FetchErr != nil {
			return nil, p.FetchErr
		}
		return nil, fmt.Errorf("chapter %d is gone", ref.Index)
	}
	if p.TransientFailures > 0 {
		p.attempts[ref.Index]++
		if p.attempts[ref.Index] <= p.TransientFailures {
			return nil, fmt.Errorf("fetch chapter %d: connection reset", ref.Index)
		}
	}
	return []byte(fmt.Sprintf("audio-bytes-for-chapter-%03d", ref.Index+1)), nil
}
