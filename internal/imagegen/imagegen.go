package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const DefaultMaxAttempts = 3

// ErrNoValidImage is returned when no generated URL passed validation.
var ErrNoValidImage = errors.New("no reachable image generated")

// Client is the subset of *openai.Client used here.
type Client interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

// Validator reports whether a URL is reachable. *linkcheck.Validator satisfies it.
type Validator interface {
	Validate(ctx context.Context, url string) bool
}

// Generator creates one image per call using the caller's API key and
// regenerates until the returned URL is reachable.
type Generator struct {
	// BaseURL overrides the OpenAI-compatible endpoint, e.g. "https://api.openai.com/v1".
	BaseURL    string
	HTTPClient *http.Client
	Validator  Validator
	// MaxAttempts bounds regeneration. Zero means DefaultMaxAttempts.
	MaxAttempts int

	// NewClient builds a client bound to apiKey. Nil uses go-openai.
	NewClient func(apiKey string) Client
}

// Generate returns the first response whose image URL validates.
func (g *Generator) Generate(ctx context.Context, prompt, apiKey string) (openai.ImageResponse, error) {
	client := g.client(apiKey)
	max := g.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	req := openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	}
	for attempt := 1; attempt <= max; attempt++ {
		resp, err := client.CreateImage(ctx, req)
		if err != nil {
			return openai.ImageResponse{}, fmt.Errorf("create image: %w", err)
		}
		if len(resp.Data) > 0 && g.Validator.Validate(ctx, resp.Data[0].URL) {
			return resp, nil
		}
		log.Warn().Int("attempt", attempt).Msg("generated image url unreachable; regenerating")
	}
	return openai.ImageResponse{}, fmt.Errorf("%w after %d attempt(s)", ErrNoValidImage, max)
}

func (g *Generator) client(apiKey string) Client {
	if g.NewClient != nil {
		return g.NewClient(apiKey)
	}
	cfg := openai.DefaultConfig(apiKey)
	if g.BaseURL != "" {
		cfg.BaseURL = g.BaseURL
	}
	if g.HTTPClient != nil {
		cfg.HTTPClient = g.HTTPClient
	}
	return openai.NewClientWithConfig(cfg)
}

// UpstreamError extracts the provider status code and error body from err.
// ok is false when err carries no upstream HTTP status.
func UpstreamError(err error) (status int, body any, ok bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, map[string]any{"error": apiErr}, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, map[string]any{"error": map[string]any{"message": reqErr.Error()}}, true
	}
	return 0, nil, false
}
