// Package librivox implements the Provider interface for LibriVox,
// a catalog of public-domain audiobooks. Book and section data comes
// from the JSON feed API; the cover image is scraped from the book
// page since the API does not expose it.
package librivox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vrsandeep/tome-go/internal/models"
	"github.com/vrsandeep/tome-go/internal/retry"
)

const userAgent = "tome-go/1.0"

// LibrivoxProvider implements the Provider interface for LibriVox.
type LibrivoxProvider struct {
	client     *http.Client
	apiBaseURL string
}

// New creates a new instance of the LibrivoxProvider.
func New() *LibrivoxProvider {
	return &LibrivoxProvider{
		client:     &http.Client{Timeout: 30 * time.Second},
		apiBaseURL: "https://librivox.org/api/feed",
	}
}

// GetInfo returns static information about this provider.
func (p *LibrivoxProvider) GetInfo() models.ProviderInfo {
	return models.ProviderInfo{
		ID:   "librivox",
		Name: "LibriVox",
	}
}

// Search queries the feed API by title.
func (p *LibrivoxProvider) Search(query string) ([]models.SearchResult, error) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/audiobooks/", p.apiBaseURL), nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Add("title", query)
	q.Add("format", "json")
	q.Add("limit", "25")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("search", resp.StatusCode)
	}

	var apiResponse audiobooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, err
	}

	var results []models.SearchResult
	for _, book := range apiResponse.Books {
		results = append(results, models.SearchResult{
			Title:      book.Title,
			Author:     joinAuthors(book.Authors),
			Identifier: book.ID,
		})
	}
	return results, nil
}

// GetBook fetches the full metadata and ordered chapter list for one
// book. Chapter start times are computed cumulatively from the
// per-section playtimes so the refs are contiguous.
func (p *LibrivoxProvider) GetBook(identifier string) (*models.BookMetadata, []models.ChapterRef, error) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/audiobooks/", p.apiBaseURL), nil)
	if err != nil {
		return nil, nil, err
	}
	q := req.URL.Query()
	q.Add("id", identifier)
	q.Add("format", "json")
	q.Add("extended", "1")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, statusError("get book", resp.StatusCode)
	}

	var apiResponse audiobooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, nil, err
	}
	if len(apiResponse.Books) == 0 {
		return nil, nil, fmt.Errorf("book '%s' not found", identifier)
	}
	book := apiResponse.Books[0]

	meta := &models.BookMetadata{
		Title:   book.Title,
		Authors: splitAuthors(book.Authors),
		Description: &models.Description{
			Full: strings.TrimSpace(stripTags(book.Description)),
		},
	}
	if narrator := sectionNarrator(book.Sections); narrator != "" {
		meta.Narrator = narrator
	}
	// Best effort; a missing cover never fails the extraction.
	if book.URLLibrivox != "" {
		if coverURL, err := p.scrapeCoverURL(book.URLLibrivox); err == nil {
			meta.CoverURL = coverURL
		}
	}

	var chapters []models.ChapterRef
	start := 0.0
	for i, section := range book.Sections {
		if section.ListenURL == "" {
			continue
		}
		dur, _ := strconv.ParseFloat(section.Playtime, 64)
		title := section.Title
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}
		chapters = append(chapters, models.ChapterRef{
			Index:            len(chapters),
			Title:            title,
			URL:              section.ListenURL,
			DurationSeconds:  dur,
			StartTimeSeconds: start,
		})
		start += dur
	}
	if len(chapters) == 0 {
		return nil, nil, fmt.Errorf("book '%s' has no listenable sections", identifier)
	}
	return meta, chapters, nil
}

// FetchChapter downloads the audio bytes for one chapter. Throttling
// and server errors are wrapped as transient so the retry executor
// picks them up.
func (p *LibrivoxProvider) FetchChapter(ctx context.Context, ref models.ChapterRef) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", ref.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch chapter %d: %w", ref.Index, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(fmt.Sprintf("fetch chapter %d", ref.Index), resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		// Interrupted body reads are worth retrying.
		return nil, fmt.Errorf("fetch chapter %d: read body: %w: %v", ref.Index, retry.ErrTransient, err)
	}
	return data, nil
}

// scrapeCoverURL pulls the og:image URL from the book's catalog page.
func (p *LibrivoxProvider) scrapeCoverURL(pageURL string) (string, error) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusError("scrape cover", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}
	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && content != "" {
		return content, nil
	}
	if src, ok := doc.Find(".book-page-book-cover img").Attr("src"); ok && src != "" {
		return src, nil
	}
	return "", fmt.Errorf("no cover image on page")
}

// statusError classifies HTTP failures: throttling and server errors
// are transient, anything else is permanent.
func statusError(op string, code int) error {
	switch {
	case code == http.StatusTooManyRequests,
		code == http.StatusRequestTimeout,
		code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: status %d: %w", op, code, retry.ErrTransient)
	default:
		return fmt.Errorf("%s: unexpected status %d", op, code)
	}
}

func joinAuthors(authors []apiAuthor) string {
	return strings.Join(splitAuthors(authors), ", ")
}

func splitAuthors(authors []apiAuthor) []string {
	var names []string
	for _, a := range authors {
		name := strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// sectionNarrator returns the reader credited on the most sections, or
// "Various" when several readers share the book.
func sectionNarrator(sections []apiSection) string {
	counts := make(map[string]int)
	for _, s := range sections {
		for _, r := range s.Readers {
			if name := strings.TrimSpace(r.DisplayName); name != "" {
				counts[name]++
			}
		}
	}
	if len(counts) == 0 {
		return ""
	}
	if len(counts) > 2 {
		return "Various"
	}
	best, bestCount := "", 0
	for name, count := range counts {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}
	return best
}

// stripTags removes the simple HTML markup the API embeds in
// descriptions.
func stripTags(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
