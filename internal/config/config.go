// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration. Every entry point shares it;
// unused fields cost nothing.
type Config struct {
	ListenAddr     string `env:"DIVIDE21X_LISTEN_ADDR" envDefault:":8090"`
	ChallengeDir   string `env:"DIVIDE21X_CHALLENGE_DIR" envDefault:"./challenges"`
	ResultsDir     string `env:"DIVIDE21X_RESULTS_DIR" envDefault:"./results"`
	LeaderboardDir string `env:"DIVIDE21X_LEADERBOARD_DIR" envDefault:"./leaderboards"`
	AuditLogDir    string `env:"DIVIDE21X_AUDIT_LOG_DIR" envDefault:"./logs"`
	DBPath         string `env:"DIVIDE21X_DB_PATH" envDefault:"./divide21x.db"`
	RegistryPath   string `env:"DIVIDE21X_REGISTRY_PATH" envDefault:"./registry.json"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
