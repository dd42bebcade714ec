package article

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanText strips markup from feed-supplied text: HTML tags removed,
// entities unescaped, runs of whitespace collapsed to single spaces.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// TruncateTeaser cleans text and bounds it to maxLen characters, cutting
// at a word boundary and appending an ellipsis marker. Never cuts mid-word.
func TruncateTeaser(s string, maxLen int) string {
	s = CleanText(s)
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}
