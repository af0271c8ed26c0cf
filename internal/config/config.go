// Package config loads server settings from the environment. A .env file in
// the working directory is read first; real environment variables win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port int

	// DatabaseURL selects Postgres. When empty, SQLite at DBPath is used.
	DatabaseURL string
	DBPath      string

	// JWTSecret enables authentication. When empty, auth and protected routes
	// answer 503 instead of the server refusing to start.
	JWTSecret    string
	CookieSecure bool
	CORSOrigins  []string

	RedisURL string
	CacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	LogLevel slog.Level
}

// AuthEnabled reports whether a JWT secret is configured.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Tests pass a map lookup.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %q", getenv("PORT")))
	}

	ttlSec, err := strconv.Atoi(get("CACHE_TTL_SEC", "300"))
	if err != nil || ttlSec < 0 {
		errs = append(errs, fmt.Errorf("invalid CACHE_TTL_SEC %q", getenv("CACHE_TTL_SEC")))
	}

	cookieSecure := false
	if v := get("COOKIE_SECURE", ""); v != "" {
		cookieSecure, err = strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid COOKIE_SECURE %q", v))
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(get("LOG_LEVEL", "INFO"))); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q", getenv("LOG_LEVEL")))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}

	return Config{
		Port:          port,
		DatabaseURL:   get("DATABASE_URL", ""),
		DBPath:        get("DB_PATH", "data/creo.db"),
		JWTSecret:     get("JWT_SECRET", ""),
		CookieSecure:  cookieSecure,
		CORSOrigins:   splitList(get("CORS_ORIGIN", "http://localhost:3000")),
		RedisURL:      get("REDIS_URL", ""),
		CacheTTL:      time.Duration(ttlSec) * time.Second,
		KafkaBrokers:  splitList(get("KAFKA_BROKERS", "")),
		KafkaTopic:    get("KAFKA_TOPIC", "creo-activity"),
		OpenAIAPIKey:  get("OPENAI_API_KEY", ""),
		OpenAIBaseURL: get("OPENAI_BASE_URL", ""),
		LogLevel:      level,
	}, nil
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
