package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections improve readability and map naturally to flags/env.
type FileConfig struct {
	Server struct {
		Port            string        `yaml:"port" json:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
	} `yaml:"server" json:"server"`

	Log struct {
		Level  string `yaml:"level" json:"level"`
		Format string `yaml:"format" json:"format"`
	} `yaml:"log" json:"log"`

	Search struct {
		URL  string `yaml:"url" json:"url"`
		Key  string `yaml:"key" json:"key"`
		File string `yaml:"file" json:"file"`
		Num  int    `yaml:"num" json:"num"`
	} `yaml:"search" json:"search"`

	Enrich struct {
		MaxSources      int           `yaml:"maxSources" json:"maxSources"`
		ExcerptWords    int           `yaml:"excerptWords" json:"excerptWords"`
		ExtractMode     string        `yaml:"extractMode" json:"extractMode"`
		ValidateTimeout time.Duration `yaml:"validateTimeout" json:"validateTimeout"`
		ScrapeTimeout   time.Duration `yaml:"scrapeTimeout" json:"scrapeTimeout"`
		ScrapeMaxBytes  int64         `yaml:"scrapeMaxBytes" json:"scrapeMaxBytes"`
		MaxConcurrent   int           `yaml:"maxConcurrent" json:"maxConcurrent"`
		RateLimitRPS    float64       `yaml:"rateLimitRPS" json:"rateLimitRPS"`
		UserAgent       string        `yaml:"ua" json:"ua"`
		RespectRobots   *bool         `yaml:"respectRobots" json:"respectRobots"`
	} `yaml:"enrich" json:"enrich"`

	OAuth struct {
		ClientID     string        `yaml:"clientID" json:"clientID"`
		ClientSecret string        `yaml:"clientSecret" json:"clientSecret"`
		RedirectURI  string        `yaml:"redirectURI" json:"redirectURI"`
		TokenURL     string        `yaml:"tokenURL" json:"tokenURL"`
		MaxAttempts  int           `yaml:"maxAttempts" json:"maxAttempts"`
		BaseDelay    time.Duration `yaml:"baseDelay" json:"baseDelay"`
		MaxDelay     time.Duration `yaml:"maxDelay" json:"maxDelay"`
	} `yaml:"oauth" json:"oauth"`

	Image struct {
		BaseURL     string `yaml:"base" json:"base"`
		MaxAttempts int    `yaml:"maxAttempts" json:"maxAttempts"`
	} `yaml:"image" json:"image"`

	Social struct {
		BaseURL string `yaml:"base" json:"base"`
	} `yaml:"social" json:"social"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every non-zero value from fc onto cfg. It runs
// after defaults and before env, so env and flags still win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr(&cfg.Port, fc.Server.Port)
	setDur(&cfg.ShutdownTimeout, fc.Server.ShutdownTimeout)
	setStr(&cfg.LogLevel, fc.Log.Level)
	setStr(&cfg.LogFormat, fc.Log.Format)

	setStr(&cfg.SerperURL, fc.Search.URL)
	setStr(&cfg.SerperAPIKey, fc.Search.Key)
	setStr(&cfg.SearchFile, fc.Search.File)
	setInt(&cfg.SearchNum, fc.Search.Num)

	setInt(&cfg.MaxSources, fc.Enrich.MaxSources)
	setInt(&cfg.ExcerptWords, fc.Enrich.ExcerptWords)
	setStr(&cfg.ExtractMode, fc.Enrich.ExtractMode)
	setDur(&cfg.ValidateTimeout, fc.Enrich.ValidateTimeout)
	setDur(&cfg.ScrapeTimeout, fc.Enrich.ScrapeTimeout)
	if fc.Enrich.ScrapeMaxBytes > 0 {
		cfg.ScrapeMaxBytes = fc.Enrich.ScrapeMaxBytes
	}
	setInt(&cfg.MaxConcurrent, fc.Enrich.MaxConcurrent)
	if fc.Enrich.RateLimitRPS > 0 {
		cfg.RateLimitRPS = fc.Enrich.RateLimitRPS
	}
	setStr(&cfg.UserAgent, fc.Enrich.UserAgent)
	if fc.Enrich.RespectRobots != nil {
		cfg.RespectRobots = *fc.Enrich.RespectRobots
	}

	setStr(&cfg.OAuthClientID, fc.OAuth.ClientID)
	setStr(&cfg.OAuthClientSecret, fc.OAuth.ClientSecret)
	setStr(&cfg.OAuthRedirectURI, fc.OAuth.RedirectURI)
	setStr(&cfg.OAuthTokenURL, fc.OAuth.TokenURL)
	setInt(&cfg.OAuthMaxAttempts, fc.OAuth.MaxAttempts)
	setDur(&cfg.OAuthBaseDelay, fc.OAuth.BaseDelay)
	setDur(&cfg.OAuthMaxDelay, fc.OAuth.MaxDelay)

	setStr(&cfg.OpenAIBaseURL, fc.Image.BaseURL)
	setInt(&cfg.ImageMaxAttempts, fc.Image.MaxAttempts)
	setStr(&cfg.SocialBaseURL, fc.Social.BaseURL)
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setDur(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
