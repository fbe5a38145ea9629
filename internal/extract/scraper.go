package extract

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Fetcher retrieves a page body. *fetch.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// RobotsPolicy gates which pages may be fetched. *robots.Manager satisfies it.
type RobotsPolicy interface {
	Allowed(ctx context.Context, url string) bool
}

// Scraper fetches a page and reduces it to a short plain-text excerpt.
type Scraper struct {
	Fetcher   Fetcher
	Extractor Extractor
	// MaxWords bounds the excerpt. Zero means DefaultMaxWords.
	MaxWords int
	// Robots, when set, is consulted before every fetch.
	Robots RobotsPolicy
}

// Scrape returns the normalized excerpt for url. Any fetch or parse failure is
// logged and yields the empty string.
func (s *Scraper) Scrape(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}
	if s.Robots != nil && !s.Robots.Allowed(ctx, url) {
		log.Debug().Str("url", url).Msg("scrape skipped by robots.txt")
		return ""
	}
	body, _, err := s.Fetcher.Get(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("scrape failed")
		return ""
	}
	ex := s.Extractor
	if ex == nil {
		ex = BodyExtractor{}
	}
	doc := ex.Extract(body, url)
	return Normalize(doc.Text, s.MaxWords)
}
