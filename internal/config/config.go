// Package config loads the server configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs at startup.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string `env:"ADDR" envDefault:":8080"`

	// DBPath is the SQLite database file.
	DBPath string `env:"DB_PATH" envDefault:"./data/esusu.db"`

	// PaystackSecretKey authenticates gateway calls.
	PaystackSecretKey string `env:"PAYSTACK_SECRET_KEY,required"`

	// PaystackBaseURL overrides the gateway endpoint, mainly for staging.
	PaystackBaseURL string `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co"`

	// GatewayTimeout bounds each gateway call; a call past the deadline is
	// treated as a failed attempt.
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"15s"`

	// JWTSecret verifies tokens issued by the identity service.
	JWTSecret string `env:"JWT_SECRET,required"`

	// DefaultCurrency tags group amounts and gateway transfers.
	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"NGN"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
