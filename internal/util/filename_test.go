package util

import "testing"

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"illegal characters", `Book/Title:With*Bad?Chars`, "Book-Title-With-Bad-Chars"},
		{"windows reserved", `a<b>c|d"e`, "a-b-c-d-e"},
		{"whitespace collapsed", "The   Count of\tMonte Cristo", "The Count of Monte Cristo"},
		{"leading dots stripped", "...hidden", "hidden"},
		{"leading dashes stripped", "/etc/passwd", "etc-passwd"},
		{"null byte", "a\x00b", "a-b"},
		{"empty becomes untitled", "", "untitled"},
		{"only illegal becomes untitled", "???", "untitled"},
		{"plain title untouched", "Pride and Prejudice", "Pride and Prejudice"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeFilename(tc.input); got != tc.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
