package app

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// ApplyEnv overrides cfg fields whose environment variable is set. Unset
// variables leave the current value in place, so env layers over file config
// and defaults.
func ApplyEnv(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	// Legacy name used by earlier deployments.
	if cfg.SerperAPIKey == "" {
		cfg.SerperAPIKey = os.Getenv("SERP_API_PERPLEXITY")
	}
	return nil
}
