package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a simplified representation of extracted page content.
type Document struct {
	Title string
	Text  string
}

// strippedSelectors lists elements whose text never reaches an excerpt.
// Anchors are dropped entirely so link labels do not leak navigation text.
const strippedSelectors = "script, style, noscript, iframe, link, meta, a"

// FromHTML returns the page title and the raw text of <body> after removing
// scripts, styles, embedded frames, metadata and anchors. The text is not
// normalized; see Normalize.
func FromHTML(input []byte) Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return Document{}
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find(strippedSelectors).Remove()
	return Document{Title: title, Text: doc.Find("body").Text()}
}
