// Package main is the entry point for the Creo Studio server.
//
// main only reads configuration, opens the optional infrastructure
// (Postgres or SQLite, Redis, Kafka, the OpenAI image API) and hands it
// to internal/server. Everything else lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/creo-studio/internal/cache"
	"github.com/sakif/creo-studio/internal/config"
	"github.com/sakif/creo-studio/internal/events"
	"github.com/sakif/creo-studio/internal/generator"
	"github.com/sakif/creo-studio/internal/generator/openai"
	"github.com/sakif/creo-studio/internal/generator/placeholder"
	"github.com/sakif/creo-studio/internal/repository/sqlstore"
	"github.com/sakif/creo-studio/internal/server"
	"github.com/sakif/creo-studio/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	deps := server.Dependencies{
		Store:     store,
		Cache:     cache.Noop{},
		Events:    events.Noop{},
		Generator: newGenerator(cfg, logger),
		Templates: web.Templates(),
		Static:    web.Static(),
	}

	// Redis is optional: without it every list read goes to the database.
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL, logger)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, list caching disabled", slog.String("error", err.Error()))
		} else {
			defer rc.Close()
			deps.Cache = rc
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		deps.Events = events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("publishing activity events",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("topic", cfg.KafkaTopic),
		)
	}

	srv, err := server.New(server.Config{
		Port:         cfg.Port,
		JWTSecret:    cfg.JWTSecret,
		CookieSecure: cfg.CookieSecure,
		CORSOrigins:  cfg.CORSOrigins,
	}, deps, logger)
	if err != nil {
		store.Close()
		return err
	}

	// Start blocks until SIGINT/SIGTERM and closes the store and publisher.
	return srv.Start()
}

func openStore(cfg config.Config, logger *slog.Logger) (*sqlstore.DB, error) {
	if cfg.DatabaseURL != "" {
		logger.Info("using postgres")
		return sqlstore.OpenPostgres(cfg.DatabaseURL)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	logger.Info("using sqlite", slog.String("path", cfg.DBPath))
	return sqlstore.OpenSQLite(cfg.DBPath)
}

func newGenerator(cfg config.Config, logger *slog.Logger) generator.Generator {
	if cfg.OpenAIAPIKey == "" {
		logger.Info("OPENAI_API_KEY not set, serving placeholder images")
		return placeholder.New()
	}
	return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
}
