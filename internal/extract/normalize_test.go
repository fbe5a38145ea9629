package extract

import (
	"regexp"
	"strings"
	"testing"
)

var allowedExcerpt = regexp.MustCompile(`^[A-Za-z0-9_ .,!?-]*$`)

func TestNormalize_Pipeline(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "  a \n\t b   c ", "a b c"},
		{"removes brackets", "see [1] (note) here", "see 1 note here"},
		{"replaces symbols", "price: $5 & more", "price 5 more"},
		{"keeps punctuation", "Hello, world! Ready? Yes-no.", "Hello, world! Ready? Yes-no."},
		{"folds accents", "café naïve", "cafe naive"},
		{"drops non-latin", "日本 panda", "panda"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in, 100); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalize_WordBound(t *testing.T) {
	in := strings.Repeat("word ", 250)
	got := Normalize(in, 0)
	if n := len(strings.Fields(got)); n != DefaultMaxWords {
		t.Fatalf("expected %d words, got %d", DefaultMaxWords, n)
	}
	got = Normalize(in, 7)
	if n := len(strings.Fields(got)); n != 7 {
		t.Fatalf("expected 7 words, got %d", n)
	}
}

func TestNormalize_OutputAlphabet(t *testing.T) {
	in := "Ünïcödé — “quotes” «guillemets» <tags> {braces} 50% @home #tag ~tilde"
	got := Normalize(in, 100)
	if !allowedExcerpt.MatchString(got) {
		t.Fatalf("unexpected characters in %q", got)
	}
	if strings.Contains(got, "  ") || got != strings.TrimSpace(got) {
		t.Fatalf("expected single-spaced trimmed output, got %q", got)
	}
}
