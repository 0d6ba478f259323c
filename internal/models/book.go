package models

import (
	"encoding/json"
	"time"
)

// Description holds a book blurb. Some sources serve it as a plain
// string, others as a {full, short} pair, so it unmarshals from either
// shape. Short is preferred wherever space is limited (tag comments).
type Description struct {
	Full  string `json:"full,omitempty"`
	Short string `json:"short,omitempty"`
}

func (d *Description) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.Full = s
		d.Short = ""
		return nil
	}
	type plain Description
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = Description(p)
	return nil
}

// Preferred returns the short form when present, the full text otherwise.
func (d *Description) Preferred() string {
	if d == nil {
		return ""
	}
	if d.Short != "" {
		return d.Short
	}
	return d.Full
}

// BookMetadata describes a book as extracted from a source. It is
// immutable once extracted.
type BookMetadata struct {
	Title       string       `json:"title"`
	Authors     []string     `json:"authors"`
	Narrator    string       `json:"narrator,omitempty"`
	CoverURL    string       `json:"coverUrl,omitempty"`
	Description *Description `json:"description,omitempty"`
}

// ChapterRef is one fetchable audio segment of a book, ordered by
// Index ascending. Start times are contiguous:
// StartTimeSeconds[i+1] = StartTimeSeconds[i] + DurationSeconds[i].
type ChapterRef struct {
	Index            int     `json:"index"`
	Title            string  `json:"title"`
	URL              string  `json:"url"`
	DurationSeconds  float64 `json:"duration"`
	StartTimeSeconds float64 `json:"startTime"`
}

// ManifestChapter is the slimmed-down chapter entry persisted in the
// per-book metadata.json manifest.
type ManifestChapter struct {
	Index    int     `json:"index"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// BookManifest is the metadata.json document written next to the
// chapter files. The downloader uses it for resume duration fallback
// and the merge engine requires it for tagging.
type BookManifest struct {
	Metadata BookMetadata      `json:"metadata"`
	Chapters []ManifestChapter `json:"chapters"`
}

// DownloadState is the resumable progress record for one book, stored
// as a single JSON document named by BookID. DownloadedChapters holds
// zero-based indices, kept sorted, always a subset of
// [0, TotalChapters). The record grows monotonically and is deleted
// once every chapter has been downloaded.
type DownloadState struct {
	BookID             string       `json:"bookId"`
	BookTitle          string       `json:"bookTitle"`
	TotalChapters      int          `json:"totalChapters"`
	DownloadedChapters []int        `json:"downloadedChapters"`
	OutputDir          string       `json:"outputDir"`
	Mode               string       `json:"mode"`
	Merge              bool         `json:"merge"`
	Metadata           BookMetadata `json:"metadata"`
	StartedAt          time.Time    `json:"startedAt"`
	LastUpdatedAt      time.Time    `json:"lastUpdatedAt"`
}
