// Package social proxies a small set of RapidAPI Twitter endpoints using the
// caller's RapidAPI credentials.
package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the upstream RapidAPI host.
const DefaultBaseURL = "https://twitter154.p.rapidapi.com"

// ErrMissingCredentials is returned when either RapidAPI header is absent.
var ErrMissingCredentials = errors.New("required headers 'X-RapidAPI-Host' and 'X-RapidAPI-Key' are missing")

// Credentials are forwarded verbatim as X-RapidAPI-Host and X-RapidAPI-Key.
type Credentials struct {
	Host string
	Key  string
}

func (c Credentials) valid() bool {
	return strings.TrimSpace(c.Host) != "" && strings.TrimSpace(c.Key) != ""
}

// Tweet is the reduced form returned to callers.
type Tweet struct {
	Text string `json:"text"`
}

// SearchParams are the /search/search query parameters. Empty fields take defaults.
type SearchParams struct {
	Query       string
	Section     string
	Language    string
	Limit       string
	MinLikes    string
	MinRetweets string
}

// UserTweetsParams are the /user/tweets query parameters. Empty fields take defaults.
type UserTweetsParams struct {
	Username      string
	Limit         string
	IncludePinned string
}

// Client calls the upstream API.
type Client struct {
	BaseURL string
	Timeout time.Duration
	// HTTP is an optional pre-configured resty client.
	HTTP *resty.Client

	once sync.Once
}

type resultsEnvelope struct {
	Results []Tweet `json:"results"`
}

// SearchTweets returns the text of tweets matching p.Query.
func (c *Client) SearchTweets(ctx context.Context, creds Credentials, p SearchParams) ([]Tweet, error) {
	params := map[string]string{
		"query":        p.Query,
		"section":      or(p.Section, "latest"),
		"language":     or(p.Language, "en"),
		"limit":        or(p.Limit, "10"),
		"min_likes":    or(p.MinLikes, "0"),
		"min_retweets": or(p.MinRetweets, "0"),
	}
	var env resultsEnvelope
	if err := c.get(ctx, creds, "/search/search", params, &env); err != nil {
		return nil, err
	}
	return texts(env.Results), nil
}

// UserDetails returns the upstream user document unchanged.
func (c *Client) UserDetails(ctx context.Context, creds Credentials, username string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, creds, "/user/details", map[string]string{"username": username}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// UserTweets returns the text of a user's recent tweets.
func (c *Client) UserTweets(ctx context.Context, creds Credentials, p UserTweetsParams) ([]Tweet, error) {
	params := map[string]string{
		"username":       p.Username,
		"limit":          or(p.Limit, "10"),
		"include_pinned": or(p.IncludePinned, "false"),
	}
	var env resultsEnvelope
	if err := c.get(ctx, creds, "/user/tweets", params, &env); err != nil {
		return nil, err
	}
	return texts(env.Results), nil
}

func (c *Client) get(ctx context.Context, creds Credentials, path string, params map[string]string, out any) error {
	if !creds.valid() {
		return ErrMissingCredentials
	}
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	resp, err := c.client().R().
		SetContext(ctx).
		SetHeader("X-RapidAPI-Host", creds.Host).
		SetHeader("X-RapidAPI-Key", creds.Key).
		SetQueryParams(params).
		Get(base + path)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s status %d", path, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s decode: %w", path, err)
	}
	return nil
}

func (c *Client) client() *resty.Client {
	c.once.Do(func() {
		if c.HTTP != nil {
			return
		}
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		c.HTTP = resty.New().SetTimeout(timeout)
	})
	return c.HTTP
}

func texts(in []Tweet) []Tweet {
	out := make([]Tweet, 0, len(in))
	for _, t := range in {
		out = append(out, Tweet{Text: t.Text})
	}
	return out
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
