package extract

import "fmt"

// Mode selects the extraction strategy.
type Mode string

const (
	// ModeBody takes the whole stripped <body> text.
	ModeBody Mode = "body"
	// ModeReadability takes the main article as isolated by go-readability,
	// falling back to ModeBody when no article is found.
	ModeReadability Mode = "readability"
)

// ParseMode maps a configuration string to a Mode. Empty selects ModeBody.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeBody:
		return ModeBody, nil
	case ModeReadability:
		return ModeReadability, nil
	default:
		return "", fmt.Errorf("unknown extract mode %q", s)
	}
}

// Extractor defines a minimal interface for content extraction strategies.
// Implementations can swap readability tactics without changing callers.
type Extractor interface {
	// Extract converts raw HTML bytes into a simplified Document.
	Extract(input []byte, pageURL string) Document
}

// BodyExtractor uses FromHTML.
type BodyExtractor struct{}

func (BodyExtractor) Extract(input []byte, _ string) Document {
	return FromHTML(input)
}

// ReadabilityExtractor prefers the readability article and falls back to the body text.
type ReadabilityExtractor struct{}

func (ReadabilityExtractor) Extract(input []byte, pageURL string) Document {
	if doc, ok := articleText(input, pageURL); ok {
		return doc
	}
	return FromHTML(input)
}

// ForMode returns the Extractor for m.
func ForMode(m Mode) Extractor {
	if m == ModeReadability {
		return ReadabilityExtractor{}
	}
	return BodyExtractor{}
}
