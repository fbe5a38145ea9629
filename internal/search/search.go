package search

import (
	"context"
	"errors"
)

// DefaultTitle is substituted when the provider omits a result title.
const DefaultTitle = "No Title"

// ErrMissingAPIKey is returned by providers that require a key when none is configured.
var ErrMissingAPIKey = errors.New("search provider api key not configured")

// Candidate is a single image hit after ingestion. All fields are populated;
// absent upstream values are replaced by their defaults.
type Candidate struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Image string `json:"image"`
}

// Provider is a minimal interface for image-search providers.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
	Name() string
}

// rawImage mirrors one entry of the provider "images" array. Pointer fields
// distinguish a missing key from an explicit empty string.
type rawImage struct {
	Title    *string `json:"title"`
	Link     *string `json:"link"`
	ImageURL *string `json:"imageUrl"`
}

type imagesResponse struct {
	Images []rawImage `json:"images"`
}

// NormalizeImages maps raw provider results into candidates, applying defaults
// for missing fields. Order is preserved.
func NormalizeImages(raw []rawImage) []Candidate {
	out := make([]Candidate, 0, len(raw))
	for _, r := range raw {
		out = append(out, Candidate{
			Title: orDefault(r.Title, DefaultTitle),
			Link:  orDefault(r.Link, ""),
			Image: orDefault(r.ImageURL, ""),
		})
	}
	return out
}

func orDefault(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}
