package models

import "time"

// DownloadQueueItem is one queued book acquisition. The queue is
// book-level; per-chapter progress lives in the resume state store.
type DownloadQueueItem struct {
	ID             int64     `json:"id"`
	BookTitle      string    `json:"book_title"`
	BookIdentifier string    `json:"book_identifier"`
	ProviderID     string    `json:"provider_id"`
	Status         string    `json:"status"`   // e.g. "queued", "in_progress", "paused", "completed", "failed"
	Progress       int       `json:"progress"` // Percentage of chapters downloaded
	Message        string    `json:"message"`  // Optional message for status updates
	Merge          bool      `json:"merge"`    // Combine chapters into one container after download
	CreatedAt      time.Time `json:"created_at"`
}
