package app

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hyperifyio/serprelay/internal/extract"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Server
	Port            string        `env:"PORT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	// Search
	SerperAPIKey string `env:"SERPER_API_KEY"`
	SerperURL    string `env:"SERPER_URL"`
	SearchFile   string `env:"SEARCH_FILE"`
	SearchNum    int    `env:"SEARCH_NUM"`

	// Enrichment
	MaxSources      int           `env:"MAX_SOURCES"`
	ExcerptWords    int           `env:"EXCERPT_WORDS"`
	ExtractMode     string        `env:"EXTRACT_MODE"`
	ValidateTimeout time.Duration `env:"VALIDATE_TIMEOUT"`
	ScrapeTimeout   time.Duration `env:"SCRAPE_TIMEOUT"`
	ScrapeMaxBytes  int64         `env:"SCRAPE_MAX_BYTES"`
	MaxConcurrent   int           `env:"MAX_CONCURRENT"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS"`
	UserAgent       string        `env:"USER_AGENT"`
	RespectRobots   bool          `env:"RESPECT_ROBOTS"`

	// OAuth
	OAuthClientID     string        `env:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string        `env:"OAUTH_CLIENT_SECRET"`
	OAuthRedirectURI  string        `env:"OAUTH_REDIRECT_URI"`
	OAuthTokenURL     string        `env:"OAUTH_TOKEN_URL"`
	OAuthMaxAttempts  int           `env:"OAUTH_MAX_ATTEMPTS"`
	OAuthBaseDelay    time.Duration `env:"OAUTH_BASE_DELAY"`
	OAuthMaxDelay     time.Duration `env:"OAUTH_MAX_DELAY"`

	// Image generation
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	ImageMaxAttempts int    `env:"IMAGE_MAX_ATTEMPTS"`

	// Social proxy
	SocialBaseURL string `env:"SOCIAL_BASE_URL"`
}

// DefaultConfig returns the built-in defaults, the lowest precedence layer.
func DefaultConfig() Config {
	return Config{
		Port:             "3000",
		ShutdownTimeout:  10 * time.Second,
		LogLevel:         "info",
		LogFormat:        "console",
		SearchNum:        50,
		MaxSources:       10,
		ExcerptWords:     extract.DefaultMaxWords,
		ExtractMode:      string(extract.ModeBody),
		ValidateTimeout:  2 * time.Second,
		ScrapeTimeout:    5 * time.Second,
		ScrapeMaxBytes:   5 << 20,
		UserAgent:        "serprelay/1.0 (+https://github.com/hyperifyio/serprelay)",
		OAuthMaxAttempts: 15,
		OAuthBaseDelay:   500 * time.Millisecond,
		ImageMaxAttempts: 3,
	}
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return net.JoinHostPort("", c.Port)
}

// ValidateConfig performs minimal schema validation.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("config: port is required")
	}
	if cfg.SearchNum < 0 || cfg.MaxSources < 0 || cfg.ExcerptWords < 0 || cfg.MaxConcurrent < 0 ||
		cfg.ScrapeMaxBytes < 0 || cfg.OAuthMaxAttempts < 0 || cfg.ImageMaxAttempts < 0 || cfg.RateLimitRPS < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.ValidateTimeout < 0 || cfg.ScrapeTimeout < 0 || cfg.OAuthBaseDelay < 0 || cfg.OAuthMaxDelay < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if _, err := extract.ParseMode(cfg.ExtractMode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", cfg.LogFormat)
	}
	return nil
}
