package app

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/serprelay/internal/assemble"
	"github.com/hyperifyio/serprelay/internal/extract"
	"github.com/hyperifyio/serprelay/internal/fetch"
	"github.com/hyperifyio/serprelay/internal/httpserver"
	"github.com/hyperifyio/serprelay/internal/imagegen"
	"github.com/hyperifyio/serprelay/internal/linkcheck"
	"github.com/hyperifyio/serprelay/internal/oauthx"
	"github.com/hyperifyio/serprelay/internal/relay"
	"github.com/hyperifyio/serprelay/internal/robots"
	"github.com/hyperifyio/serprelay/internal/search"
	"github.com/hyperifyio/serprelay/internal/social"
)

// App wires configuration into the pipeline and the HTTP surface.
type App struct {
	cfg    Config
	relay  *relay.Service
	server *httpserver.Server
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	mode, err := extract.ParseMode(cfg.ExtractMode)
	if err != nil {
		return nil, err
	}

	outbound := newOutboundHTTPClient(0)
	validator := &linkcheck.Validator{
		HTTPClient: outbound,
		Timeout:    cfg.ValidateTimeout,
		UserAgent:  cfg.UserAgent,
	}
	scraper := &extract.Scraper{
		Fetcher: &fetch.Client{
			HTTPClient:        outbound,
			UserAgent:         cfg.UserAgent,
			MaxAttempts:       1,
			PerRequestTimeout: cfg.ScrapeTimeout,
			MaxBodyBytes:      cfg.ScrapeMaxBytes,
		},
		Extractor: extract.ForMode(mode),
		MaxWords:  cfg.ExcerptWords,
	}
	if cfg.RespectRobots {
		scraper.Robots = &robots.Manager{
			HTTPClient:  outbound,
			UserAgent:   cfg.UserAgent,
			EntryExpiry: 30 * time.Minute,
		}
	}
	assembler := &assemble.Assembler{
		Validator:     validator,
		Scraper:       scraper,
		MaxSources:    cfg.MaxSources,
		MaxConcurrent: cfg.MaxConcurrent,
		Limiter:       newLimiter(cfg.RateLimitRPS),
	}

	a := &App{cfg: cfg}
	a.relay = &relay.Service{
		Provider:  newProvider(cfg),
		Assembler: assembler,
		SearchNum: cfg.SearchNum,
	}

	exchanger := &oauthx.Exchanger{
		Config: oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURI,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.OAuthTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		MaxAttempts: cfg.OAuthMaxAttempts,
		BaseDelay:   cfg.OAuthBaseDelay,
		MaxDelay:    cfg.OAuthMaxDelay,
		HTTPClient:  newOutboundHTTPClient(30 * time.Second),
	}
	if cfg.OAuthTokenURL == "" {
		log.Warn().Msg("OAUTH_TOKEN_URL not set; /callback will fail")
	}

	images := &imagegen.Generator{
		BaseURL:     cfg.OpenAIBaseURL,
		HTTPClient:  newOutboundHTTPClient(2 * time.Minute),
		Validator:   validator,
		MaxAttempts: cfg.ImageMaxAttempts,
	}

	a.server = httpserver.New(httpserver.Options{
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          log.Logger,
		ReleaseMode:     true,
	}, httpserver.Deps{
		Sources: a.relay,
		Tokens:  exchanger,
		Images:  images,
		Social:  &social.Client{BaseURL: cfg.SocialBaseURL},
	})

	log.Info().
		Str("version", BuildVersion).
		Str("commit", BuildCommit).
		Str("provider", providerName(a.relay.Provider)).
		Str("extract_mode", string(mode)).
		Int("max_sources", cfg.MaxSources).
		Msg("serprelay configured")
	return a, nil
}

// newProvider prefers an offline file when configured, then Serper. It returns
// nil when neither is available; the enrichment route then reports a search failure.
func newProvider(cfg Config) search.Provider {
	if cfg.SearchFile != "" {
		return &search.FileProvider{Path: cfg.SearchFile}
	}
	if cfg.SerperAPIKey != "" {
		return &search.Serper{BaseURL: cfg.SerperURL, APIKey: cfg.SerperAPIKey, UserAgent: cfg.UserAgent}
	}
	log.Warn().Msg("no search provider configured: set SERPER_API_KEY or SEARCH_FILE")
	return nil
}

func providerName(p search.Provider) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), int(math.Max(1, math.Ceil(rps))))
}

func (a *App) Close() {
	// nothing yet
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Query runs the enrichment pipeline once.
func (a *App) Query(ctx context.Context, q string) ([]assemble.Source, error) {
	return a.relay.Sources(ctx, q)
}

// Handler exposes the HTTP surface without binding a port.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}
