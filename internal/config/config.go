package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// LogConfig controls the process logger
type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"text"`
	Prefix string `envconfig:"PREFIX" default:"pix-ledger"`
}

// Config holds all configuration for the application
type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	// AsyncMode enables the Redis queue behind POST /pix/async
	AsyncMode     bool   `envconfig:"ASYNC_MODE" default:"false"`
	RedisURL      string `envconfig:"REDIS_URL" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// SeedFile optionally points to a JSON array of accounts opened at startup
	SeedFile string `envconfig:"SEED_FILE"`

	Log LogConfig `envconfig:"LOG"`
}

// Load reads a .env file when one is present, then the process environment.
// It reports whether a .env file was loaded.
func Load(envFiles ...string) (Config, bool, error) {
	loadedEnv := godotenv.Load(envFiles...) == nil

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, loadedEnv, fmt.Errorf("failed to process environment: %w", err)
	}
	return cfg, loadedEnv, nil
}

// Addr returns the listen address for the HTTP server
func (c Config) Addr() string {
	return ":" + c.Port
}
