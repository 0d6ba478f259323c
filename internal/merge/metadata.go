package merge

import (
	"fmt"
	"strings"

	"github.com/vrsandeep/tome-go/internal/models"
)

// genre tag applied to every merged file.
const genreTag = "Audiobook"

// escapeConcatPath quotes a path for ffmpeg's concat demuxer. The
// format is shell style: the whole path is single-quoted and embedded
// single quotes become '\''.
func escapeConcatPath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// buildConcatList renders the concat demuxer input, one file directive
// per line. Paths must already be absolute.
func buildConcatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file ")
		b.WriteString(escapeConcatPath(p))
		b.WriteString("\n")
	}
	return b.String()
}

// escapeMetadataValue escapes the characters the ffmetadata parser
// treats as special. Newlines have no escape form in the format, so
// they are flattened to spaces.
func escapeMetadataValue(v string) string {
	v = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(v)
	var b strings.Builder
	for _, r := range v {
		switch r {
		case '\\', '#', ';', '=':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// buildFFMetadata renders the ffmetadata description file: global tags
// followed by one chapter block per entry, all timestamps in
// milliseconds. The external parser is whitespace sensitive, so the
// layout here is deliberately rigid.
func buildFFMetadata(meta *models.BookMetadata, chapters []chapterInfo) string {
	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")

	writeTag := func(key, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s=%s\n", key, escapeMetadataValue(value))
	}

	writeTag("title", meta.Title)
	writeTag("artist", strings.Join(meta.Authors, ", "))
	writeTag("album", meta.Title)
	writeTag("album_artist", meta.Narrator)
	writeTag("genre", genreTag)
	writeTag("comment", meta.Description.Preferred())

	for _, ch := range chapters {
		b.WriteString("[CHAPTER]\n")
		b.WriteString("TIMEBASE=1/1000\n")
		fmt.Fprintf(&b, "START=%d\n", ch.StartMs)
		fmt.Fprintf(&b, "END=%d\n", ch.EndMs)
		fmt.Fprintf(&b, "title=%s\n", escapeMetadataValue(ch.Title))
	}
	return b.String()
}
