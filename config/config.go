// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains server configuration parameters.
type Config struct {
	Env            string        `env:"APP_ENV" envDefault:"development"`
	Port           string        `env:"PORT" envDefault:"5000"`
	GinMode        string        `env:"GIN_MODE" envDefault:"debug"`
	LogLevel       int           `env:"LOG_LEVEL" envDefault:"0"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"text"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"10"`
	Mongo          Mongo         `envPrefix:"MONGODB_"`
	JWT            JWT           `envPrefix:"JWT_"`
	RateLimit      RateLimit     `envPrefix:"RATE_LIMIT_"`
	RedisURL       string        `env:"REDIS_URL"`
}

// Mongo contains database connection parameters.
type Mongo struct {
	URI      string `env:"URI"`
	Database string `env:"DATABASE" envDefault:"devconnector"`
}

// JWT contains token signing parameters. Token lifetime is fixed by token.DefaultTTL.
type JWT struct {
	Secret string `env:"SECRET"`
}

// RateLimit bounds requests to the public auth endpoints per client.
type RateLimit struct {
	Requests int           `env:"REQUESTS" envDefault:"60"`
	Window   time.Duration `env:"WINDOW" envDefault:"1m"`
}

// NewConfig loads an optional .env file and then parses the environment.
func NewConfig(envFiles ...string) (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load(envFiles...)

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// Validate ensures that required configuration values are present.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return errors.New("MONGODB_URI is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}

	if c.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
	}

	return nil
}
