package config

import (
	"fmt"
	"net/mail"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const minSessionSecretLen = 32

// Load reads configuration from .env, an optional YAML file and the
// environment. Priority: ENV > YAML > env-default tags.
// The YAML path comes from CONFIG_PATH (fallback "./config.yaml"); a missing
// fallback file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate performs checks the struct tags cannot express.
func (c *Config) Validate() error {
	if len(c.Session.Secret) < minSessionSecretLen {
		return fmt.Errorf("session.secret must be at least %d characters (got %d)", minSessionSecretLen, len(c.Session.Secret))
	}
	if _, err := mail.ParseAddress(c.Site.AdminEmail); err != nil {
		return fmt.Errorf("site.admin_email: %w", err)
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPasswordHash == "") {
		return fmt.Errorf("auth.admin_email and auth.admin_password_hash must be set together")
	}
	if c.RateLimit.SubmissionsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.submissions_per_minute must be > 0 (got %d)", c.RateLimit.SubmissionsPerMinute)
	}
	return nil
}
