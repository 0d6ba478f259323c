package models

import "context"

// ProviderInfo contains static information about a provider.
type ProviderInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchResult represents a single book found by a provider.
type SearchResult struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	CoverURL   string `json:"cover_url"`
	Identifier string `json:"identifier"` // Unique ID for the book on the source site
}

// Provider defines the contract that every lending-service connector
// must implement. GetBook yields the extracted metadata plus the
// ordered chapter list; FetchChapter returns the raw audio bytes for
// one chapter. Chapter URLs are typically temporary signed URLs, so a
// book should be downloaded promptly after extraction.
type Provider interface {
	GetInfo() ProviderInfo
	Search(query string) ([]SearchResult, error)
	GetBook(identifier string) (*BookMetadata, []ChapterRef, error)
	FetchChapter(ctx context.Context, ref ChapterRef) ([]byte, error)
}
