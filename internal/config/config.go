// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"OGATE_DB_PATH" envDefault:"./data/ogate.db"`
	SessionSecret string `env:"OGATE_SESSION_SECRET,required"`
	ServerHost    string `env:"OGATE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"OGATE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"OGATE_ENV" envDefault:"development"`
	LogLevel      string `env:"OGATE_LOG_LEVEL" envDefault:"info"`

	// Login endpoint rate limiting (per client IP).
	LoginRateLimit float64 `env:"OGATE_LOGIN_RATE_LIMIT" envDefault:"0.5"`
	LoginRateBurst int     `env:"OGATE_LOGIN_RATE_BURST" envDefault:"5"`

	// Self-registration can be disabled for closed deployments.
	RegistrationOpen bool `env:"OGATE_REGISTRATION_OPEN" envDefault:"true"`

	// Bootstrap administrator, created on first start when absent.
	AdminUsername string `env:"OGATE_ADMIN_USERNAME" envDefault:"admin"`
	AdminEmail    string `env:"OGATE_ADMIN_EMAIL" envDefault:"admin@localhost"`
	AdminPassword string `env:"OGATE_ADMIN_PASSWORD"`
	AdminFullName string `env:"OGATE_ADMIN_FULL_NAME" envDefault:"System Administrator"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SeedEnabled returns true if a bootstrap administrator should be created.
func (c Config) SeedEnabled() bool {
	return c.AdminPassword != ""
}

// MinSessionSecretLength is the minimum required length for the session
// secret. The CSRF layer derives a 32-byte authentication key from it.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("OGATE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("OGATE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("OGATE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character
// classes (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
