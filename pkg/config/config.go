package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// TokenEnv is the environment variable holding the bot token.
const TokenEnv = "DISCORD_TOKEN"

// Config is the process configuration, read from the environment after the env file is loaded.
type Config struct {
	// Token is validated by the bootstrapper so the missing-token message stays descriptive.
	Token string `env:"DISCORD_TOKEN"`

	Prefix string `env:"BOT_PREFIX" envDefault:"~"`
	// Shards is the number of gateway shards; 0 asks Discord for the recommended count.
	Shards int `env:"BOT_SHARDS" envDefault:"1"`

	// CommandRate is the per-user command rate in events per second. 0 disables limiting.
	CommandRate  float64 `env:"BOT_COMMAND_RATE" envDefault:"0"`
	CommandBurst int     `env:"BOT_COMMAND_BURST" envDefault:"1"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load parses Config from the current environment.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	if c.Prefix == "" {
		return c, fmt.Errorf("BOT_PREFIX must not be empty")
	}
	if c.Shards < 0 {
		return c, fmt.Errorf("BOT_SHARDS must be >= 0, got %d", c.Shards)
	}
	if c.CommandRate < 0 {
		return c, fmt.Errorf("BOT_COMMAND_RATE must be >= 0, got %v", c.CommandRate)
	}
	if c.CommandBurst < 1 {
		c.CommandBurst = 1
	}
	return c, nil
}
