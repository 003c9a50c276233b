package extract

import (
	"html"
	"strings"
)

// Sanitize turns a title or alt text into plain text: entities decoded,
// markup stripped, surrounding whitespace trimmed.
func (e *Extractor) Sanitize(s string) string {
	if s == "" {
		return s
	}

	s = html.UnescapeString(s)
	s = e.policy.Sanitize(s)
	// bluemonday escapes the text it keeps
	s = html.UnescapeString(s)

	return strings.TrimSpace(s)
}
