package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxWords is the default excerpt length in whitespace-separated tokens.
const DefaultMaxWords = 100

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	brackets      = regexp.MustCompile(`[\[\]()]+`)
	disallowed    = regexp.MustCompile(`[^A-Za-z0-9_\s.,!?-]`)
)

// Normalize turns raw page text into an excerpt: accents are folded, whitespace
// collapsed, brackets and parentheses removed, every other character outside
// word characters and . , ! ? - replaced by a space, and the result cut to the
// first maxWords tokens. maxWords <= 0 selects DefaultMaxWords.
func Normalize(text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	text = foldAccents(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = brackets.ReplaceAllString(text, "")
	text = disallowed.ReplaceAllString(text, " ")
	words := strings.Fields(text)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
