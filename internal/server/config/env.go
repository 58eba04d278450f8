package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overrides fields whose environment variable is set. Durations
// use time.ParseDuration syntax, e.g. SHUTDOWN_TIMEOUT=30s.
func parseEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
