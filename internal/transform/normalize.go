// Package transform implements the processing stages between raw
// extraction and enrichment: text normalization, feature extraction,
// YouTube record reshaping, and deduplication. All stages are pure and
// in-memory; they never touch the network or the sink.
package transform

import (
	"regexp"
	"strings"
)

var (
	urlPattern      = regexp.MustCompile(`http\S+|www.\S+`)
	markdownPattern = regexp.MustCompile(`\[.*?\]\(.*?\)`)
	// \p{L}\p{N}_ is a Unicode-aware \w. Basic punctuation survives.
	specialPattern    = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?-]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanText normalizes free-form source text: URLs and markdown links are
// removed, characters outside word chars and basic punctuation are
// stripped, whitespace runs collapse to a single space, and the result is
// trimmed and lowercased. It never fails and is idempotent, so re-cleaning
// already-clean text is a no-op.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = urlPattern.ReplaceAllString(s, "")
	s = markdownPattern.ReplaceAllString(s, "")
	s = specialPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return strings.ToLower(s)
}
