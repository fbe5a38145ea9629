package linkcheck

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single existence probe.
const DefaultTimeout = 2 * time.Second

// Validator answers whether a URL is reachable using a HEAD request.
// It never transfers a body and never returns an error.
type Validator struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
}

// Validate reports true only when the probe ends in a 2xx status.
func (v *Validator) Validate(ctx context.Context, rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil || !isHTTPScheme(u) || u.Host == "" {
		return false
	}

	timeout := v.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return false
	}
	if v.UserAgent != "" {
		req.Header.Set("User-Agent", v.UserAgent)
	}
	resp, err := v.client().Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("link probe failed")
		return false
	}
	resp.Body.Close()
	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if !ok {
		log.Debug().Int("status", resp.StatusCode).Str("url", rawURL).Msg("link probe rejected")
	}
	return ok
}

func (v *Validator) client() *http.Client {
	base := http.Client{}
	if v.HTTPClient != nil {
		base = *v.HTTPClient
	}
	max := v.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	base.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
	return &base
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
