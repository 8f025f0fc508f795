package shared

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	bracketedPattern = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)
	fillerPattern    = regexp.MustCompile(`(?i)\b(feat|ft|featuring|lyrics?|official|video|audio|hd|hq)\b`)
)

// NormalizeTitle reduces a raw video title to search keywords.
//
// Bracketed asides are dropped, punctuation becomes whitespace (apostrophes are
// removed so contractions survive), filler tokens such as "feat", "lyrics" and
// "official video" are stripped, and whitespace runs collapse to one space.
// Applying it to its own output is a no-op.
func NormalizeTitle(title string) string {
	s := norm.NFC.String(title)
	s = bracketedPattern.ReplaceAllString(s, " ")

	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			return ' '
		}
		return r
	}, s)

	s = fillerPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
