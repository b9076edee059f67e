// Package config loads daemon configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the daemon needs from the environment.
// Credentials are required; every URL defaults to the production site.
type Config struct {
	Username string `env:"SB_USERNAME,required,notEmpty"`
	Password string `env:"SB_PASSWORD,required,notEmpty"`

	DBPath string `env:"SB_DB_PATH" envDefault:"saltbet.db"`

	IndexURL   string `env:"SB_INDEX_URL" envDefault:"https://www.saltybet.com/"`
	StateURL   string `env:"SB_STATE_URL" envDefault:"https://www.saltybet.com/state.json"`
	LoginURL   string `env:"SB_LOGIN_URL" envDefault:"https://www.saltybet.com/authenticate?signin=1"`
	BetURL     string `env:"SB_BET_URL" envDefault:"https://www.saltybet.com/ajax_place_bet.php"`
	RefererURL string `env:"SB_REFERER_URL" envDefault:"https://www.saltybet.com/"`

	PollInterval time.Duration `env:"SB_POLL_INTERVAL" envDefault:"5s"`
	HTTPAddr     string        `env:"SB_HTTP_ADDR" envDefault:":8080"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
