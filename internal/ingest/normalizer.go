package ingest

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

const maxDescriptionLen = 2000

// TruncateText cuts text to maxLen runes, appending an ellipsis when cut.
func TruncateText(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxLen])) + "..."
}

// plainText drops any markup a listing leaked into a field and undoes the
// entity escaping bluemonday applies.
func plainText(s string) string {
	s = sanitizeUTF8(s)
	if !strings.ContainsAny(s, "<&") {
		return cleanText(s)
	}
	return cleanText(html.UnescapeString(strictPolicy.Sanitize(s)))
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// NormalizeCandidate cleans the free-text fields of a parsed candidate
// before it is written. The external ID is left alone so repeated scrapes
// keep matching the stored row.
func NormalizeCandidate(c *CandidateEvent) {
	c.Title = plainText(c.Title)
	c.Location = plainText(c.Location)
	c.College = plainText(c.College)
	c.Description = TruncateText(plainText(c.Description), maxDescriptionLen)
	c.ImageURL = strings.TrimSpace(c.ImageURL)
	c.RegistrationLink = strings.TrimSpace(c.RegistrationLink)
	if c.Price < 0 {
		c.Price = 0
	}
}
