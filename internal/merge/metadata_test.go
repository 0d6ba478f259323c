package merge

import (
	"strings"
	"testing"

	"github.com/vrsandeep/tome-go/internal/models"
)

func TestEscapeConcatPath(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"/books/plain/chapter-001.mp3", "'/books/plain/chapter-001.mp3'"},
		{"/books/O'Brien/chapter-001.mp3", `'/books/O'\''Brien/chapter-001.mp3'`},
		{"/books/it's a 'test'/ch.mp3", `'/books/it'\''s a '\''test'\''/ch.mp3'`},
	}
	for _, tc := range testCases {
		if got := escapeConcatPath(tc.in); got != tc.want {
			t.Errorf("escapeConcatPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildConcatList(t *testing.T) {
	got := buildConcatList([]string{"/a/chapter-001.mp3", "/a/chapter-002.mp3"})
	want := "file '/a/chapter-001.mp3'\nfile '/a/chapter-002.mp3'\n"
	if got != want {
		t.Errorf("buildConcatList = %q, want %q", got, want)
	}
}

func TestEscapeMetadataValue(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"plain title", "plain title"},
		{"a=b", `a\=b`},
		{"c#1; remix", `c\#1\; remix`},
		{`back\slash`, `back\\slash`},
		{"line\none", "line one"},
		{"line\r\ntwo", "line two"},
	}
	for _, tc := range testCases {
		if got := escapeMetadataValue(tc.in); got != tc.want {
			t.Errorf("escapeMetadataValue(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildFFMetadata(t *testing.T) {
	meta := &models.BookMetadata{
		Title:    "The Book; Part=1",
		Authors:  []string{"First Author", "Second Author"},
		Narrator: "A Narrator",
		Description: &models.Description{
			Full:  "The very long form.",
			Short: "The short form.",
		},
	}
	chapters := []chapterInfo{
		{Index: 0, Title: "Intro", StartMs: 0, EndMs: 10000},
		{Index: 1, Title: "Ending #1", StartMs: 10000, EndMs: 30000},
	}

	got := buildFFMetadata(meta, chapters)

	if !strings.HasPrefix(got, ";FFMETADATA1\n") {
		t.Fatalf("missing header: %q", got)
	}
	wantLines := []string{
		`title=The Book\; Part\=1`,
		"artist=First Author, Second Author",
		`album=The Book\; Part\=1`,
		"album_artist=A Narrator",
		"genre=Audiobook",
		"comment=The short form.",
		"[CHAPTER]",
		"TIMEBASE=1/1000",
		"START=0",
		"END=10000",
		"title=Intro",
		"START=10000",
		"END=30000",
		`title=Ending \#1`,
	}
	for _, line := range wantLines {
		if !strings.Contains(got, line+"\n") {
			t.Errorf("metadata missing line %q in:\n%s", line, got)
		}
	}
}

func TestBuildFFMetadataOmitsEmptyTags(t *testing.T) {
	meta := &models.BookMetadata{Title: "T", Authors: []string{"A"}}
	got := buildFFMetadata(meta, nil)
	if strings.Contains(got, "album_artist=") {
		t.Errorf("expected no album_artist when narrator is empty:\n%s", got)
	}
	if strings.Contains(got, "comment=") {
		t.Errorf("expected no comment when description is empty:\n%s", got)
	}
}
