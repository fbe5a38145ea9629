package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// articleText runs the readability algorithm and returns the article text.
// It reports false when no article could be isolated.
func articleText(input []byte, pageURL string) (Document, bool) {
	u, err := url.Parse(pageURL)
	if err != nil || u == nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(bytes.NewReader(input), u)
	if err != nil {
		return Document{}, false
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return Document{}, false
	}
	return Document{Title: strings.TrimSpace(article.Title), Text: text}, true
}
