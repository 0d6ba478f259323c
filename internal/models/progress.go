package models

// Progress event names emitted by the download pipeline and merge
// engine. Break markers let consumers distinguish pacing rests from
// stalled downloads.
const (
	EventChapterStart    = "chapter_start"
	EventChapterComplete = "chapter_complete"
	EventChapterError    = "chapter_error"
	EventBreakStart      = "break_start"
	EventBreakEnd        = "break_end"
	EventMergeStart      = "merge_start"
	EventMergeComplete   = "merge_complete"
	EventBookComplete    = "book_complete"
	EventBookError       = "book_error"
)

type ProgressUpdate struct {
	JobID    string  `json:"jobId"`
	Event    string  `json:"event"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
	ItemID   int64   `json:"item_id"`
	BookID   string  `json:"book_id,omitempty"`
	Chapter  int     `json:"chapter,omitempty"`
	Bytes    int64   `json:"bytes,omitempty"`
	Status   string  `json:"status"` // e.g. "in_progress", "completed", "failed"
	// Optional fields for more detailed updates
	Done bool `json:"done"`
}
