// Package oauthx exchanges OAuth authorization codes for access tokens with
// bounded, sequential retry.
package oauthx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/hyperifyio/serprelay/internal/metrics"
)

const (
	DefaultMaxAttempts = 15
	DefaultBaseDelay   = 500 * time.Millisecond
)

// ErrExchangeFailed is wrapped by every terminal ExchangeCode failure.
var ErrExchangeFailed = errors.New("token exchange failed")

// Decision says what the loop does after a failed attempt.
type Decision int

const (
	Abort Decision = iota
	Retry
)

func (d Decision) String() string {
	if d == Retry {
		return "retry"
	}
	return "abort"
}

// Attempt is the loop state carried between tries.
type Attempt struct {
	Number  int
	LastErr error
}

// Exchanger performs the authorization-code grant against Config.Endpoint.TokenURL.
type Exchanger struct {
	Config oauth2.Config
	// MaxAttempts includes the first attempt. Zero means DefaultMaxAttempts.
	MaxAttempts int
	// BaseDelay is the wait after the first failure. Zero means DefaultBaseDelay.
	BaseDelay time.Duration
	// MaxDelay caps a single wait. Zero disables the cap.
	MaxDelay time.Duration
	// HTTPClient is used for token requests when set.
	HTTPClient *http.Client
}

// ExchangeCode returns the access token for code. Attempts are strictly
// sequential since the provider accepts each code once.
func (e *Exchanger) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty authorization code", ErrExchangeFailed)
	}
	if e.Config.Endpoint.TokenURL == "" {
		return "", fmt.Errorf("%w: token endpoint not configured", ErrExchangeFailed)
	}
	max := e.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}

	var st Attempt
	for st.Number = 1; st.Number <= max; st.Number++ {
		tok, err := e.exchangeOnce(ctx, code)
		if err == nil {
			metrics.RecordTokenExchange("ok")
			if st.Number > 1 {
				log.Info().Int("attempt", st.Number).Msg("token exchange succeeded after retry")
			}
			return tok.AccessToken, nil
		}
		st.LastErr = err

		decision := Classify(err)
		if ctx.Err() != nil {
			decision = Abort
		}
		metrics.RecordTokenExchange(decision.String())
		if decision == Abort {
			log.Warn().Err(err).Int("attempt", st.Number).Msg("token exchange aborted")
			return "", fmt.Errorf("%w after %d attempt(s): %w", ErrExchangeFailed, st.Number, err)
		}
		if st.Number == max {
			break
		}

		delay := e.delay(st.Number)
		log.Warn().
			Err(err).
			Int("attempt", st.Number).
			Int("max_attempts", max).
			Dur("retry_delay", delay).
			Msg("retrying token exchange")

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrExchangeFailed, ctx.Err())
		case <-time.After(delay):
		}
	}
	return "", fmt.Errorf("%w: %d attempts exhausted: %w", ErrExchangeFailed, max, st.LastErr)
}

func (e *Exchanger) exchangeOnce(ctx context.Context, code string) (*oauth2.Token, error) {
	cfg := e.Config
	// Auto-detect retries with a second POST on failure, which would reuse the code.
	if cfg.Endpoint.AuthStyle == oauth2.AuthStyleAutoDetect {
		cfg.Endpoint.AuthStyle = oauth2.AuthStyleInParams
	}
	if e.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.HTTPClient)
	}
	return cfg.Exchange(ctx, code)
}

func (e *Exchanger) delay(attempt int) time.Duration {
	base := e.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	d := Backoff(base, attempt)
	if e.MaxDelay > 0 && d > e.MaxDelay {
		d = e.MaxDelay
	}
	return d
}

// Backoff returns base * 2^(attempt-1). attempt is 1-based.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > 30 {
		shift = 30
	}
	return base << shift
}

// Classify maps an exchange error to Retry or Abort. Rate limiting and
// failures that produced no HTTP response are retried; any other provider
// response and caller cancellation abort.
func Classify(err error) Decision {
	if err == nil || errors.Is(err, context.Canceled) {
		return Abort
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil && re.Response.StatusCode == http.StatusTooManyRequests {
			return Retry
		}
		return Abort
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return Retry
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return Retry
	}
	return Abort
}
