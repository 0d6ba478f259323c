package util

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Chapter audio files are written as chapter-001.mp3, chapter-002.mp3, …
// (3-digit zero padded, 1-indexed). Anything produced by an older run
// without padding still has to sort correctly, so ordering is always by
// the parsed number, never lexical.
var chapterFilePattern = regexp.MustCompile(`(?i)^chapter-(\d+)\.mp3$`)

// ChapterFileName returns the on-disk file name for a zero-based
// chapter index.
func ChapterFileName(index int) string {
	return fmt.Sprintf("chapter-%03d.mp3", index+1)
}

// ParseChapterIndex extracts the zero-based chapter index from a file
// name like "chapter-012.mp3". The second return value reports whether
// the name matched the chapter pattern at all.
func ParseChapterIndex(name string) (int, bool) {
	m := chapterFilePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// SortChapterFiles sorts chapter file names by their embedded numeric
// index, so chapter-2 precedes chapter-10. Names without a parseable
// index sort after all numbered chapters, in natural order.
func SortChapterFiles(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, aOK := ParseChapterIndex(names[i])
		b, bOK := ParseChapterIndex(names[j])
		if aOK && bOK {
			return a < b
		}
		if aOK != bOK {
			return aOK
		}
		return NaturalSortLess(names[i], names[j])
	})
}
