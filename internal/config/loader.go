package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the
// reservation service.
type Config struct {
	HTTPPort   int
	SQLiteDSN  string
	SessionTTL time.Duration
	// AMQPURL points at the broker receiving lifecycle events. When empty the
	// service falls back to logging events instead of publishing them.
	AMQPURL string
	// Timezone names the organization's local time zone used by the
	// business-hour and weekday policies.
	Timezone string
	// SeedAdminEmail and SeedAdminPassword bootstrap an administrator account
	// when the user store is empty.
	SeedAdminEmail    string
	SeedAdminPassword string
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load parses configuration values from the current process environment.
// A .env file in the working directory is applied first when present, the
// way the service is run in development.
//
// The loader applies defaults for optional fields while accumulating invalid
// entries into a single error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:reservations.db?_foreign_keys=on",
		SessionTTL: 24 * time.Hour,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("RESERVE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "RESERVE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("RESERVE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("RESERVE_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "RESERVE_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	cfg.AMQPURL = strings.TrimSpace(os.Getenv("RESERVE_AMQP_URL"))

	if tz := strings.TrimSpace(os.Getenv("RESERVE_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "RESERVE_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	cfg.SeedAdminEmail = strings.TrimSpace(os.Getenv("RESERVE_SEED_ADMIN_EMAIL"))
	cfg.SeedAdminPassword = os.Getenv("RESERVE_SEED_ADMIN_PASSWORD")

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
