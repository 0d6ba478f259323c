package util

import (
	"regexp"
	"strings"
)

var (
	illegalChars = regexp.MustCompile(`[\x00\\/:*?"<>|]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns an arbitrary book or chapter title into a name
// that is safe on every filesystem we care about. Illegal characters
// become dashes, runs of whitespace collapse to a single space, and
// leading dots/dashes are stripped so the result is never hidden.
func SanitizeFilename(title string) string {
	safe := illegalChars.ReplaceAllString(title, "-")
	safe = multiSpace.ReplaceAllString(safe, " ")
	safe = strings.TrimSpace(safe)

	for strings.HasPrefix(safe, ".") || strings.HasPrefix(safe, "-") {
		safe = safe[1:]
	}
	if safe == "" {
		safe = "untitled"
	}
	return safe
}
