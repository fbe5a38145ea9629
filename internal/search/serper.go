package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultSerperImagesURL is the Serper image search endpoint.
const DefaultSerperImagesURL = "https://google.serper.dev/images"

// Serper implements Provider against the Serper image search API.
type Serper struct {
	// BaseURL overrides the images endpoint, mostly for tests.
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
	// Client is an optional pre-configured resty client.
	Client *resty.Client

	clientOnce sync.Once
}

func (s *Serper) Name() string { return "serper" }

func (s *Serper) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if limit <= 0 {
		limit = 50
	}
	endpoint := s.BaseURL
	if endpoint == "" {
		endpoint = DefaultSerperImagesURL
	}

	// num is sent as a string; the provider accepts both forms.
	body := map[string]any{
		"q":   query,
		"num": strconv.Itoa(limit),
	}

	var result imagesResponse
	resp, err := s.client().R().
		SetContext(ctx).
		SetHeader("X-API-KEY", s.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("serper images request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("serper images status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	return NormalizeImages(result.Images), nil
}

func (s *Serper) client() *resty.Client {
	s.clientOnce.Do(func() {
		if s.Client != nil {
			return
		}
		c := resty.New()
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		c.SetTimeout(timeout)
		if s.UserAgent != "" {
			c.SetHeader("User-Agent", s.UserAgent)
		}
		s.Client = c
	})
	return s.Client
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
