package verify

import (
	"strings"
	"unicode"
)

// normalizeTitle lowercases and trims a title for comparison. This is the
// film-style normalization.
func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeMusicTitle applies the stricter music normalization: lowercase,
// strip parenthetical suffixes ("(Remastered 2011)"), strip punctuation, and
// drop a leading article.
func normalizeMusicTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Drop everything from the first opening parenthesis or bracket.
	if i := strings.IndexAny(s, "(["); i >= 0 {
		s = s[:i]
	}

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	s = strings.Join(strings.Fields(b.String()), " ")

	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, article) {
			s = s[len(article):]
			break
		}
	}
	return s
}
