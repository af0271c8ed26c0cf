// Package server wires handlers, middleware and routes into an HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/creo-studio/internal/auth"
	"github.com/sakif/creo-studio/internal/cache"
	"github.com/sakif/creo-studio/internal/events"
	"github.com/sakif/creo-studio/internal/generator"
	"github.com/sakif/creo-studio/internal/handler"
	"github.com/sakif/creo-studio/internal/middleware"
	"github.com/sakif/creo-studio/internal/repository"
	"github.com/sakif/creo-studio/internal/service"
)

type Config struct {
	Port         int
	JWTSecret    string // empty disables authentication
	CookieSecure bool
	CORSOrigins  []string
}

// Dependencies are the long-lived resources the server uses. Cache and
// Events may be nil; no-op implementations are used instead. Passwords
// defaults to auth.NewPasswordService().
type Dependencies struct {
	Store     repository.Store
	Cache     cache.Cache
	Events    events.Publisher
	Generator generator.Generator
	Passwords *auth.PasswordService
	Templates fs.FS
	Static    fs.FS
}

type Server struct {
	router *chi.Mux
	config Config
	deps   Dependencies
	logger *slog.Logger
}

// New builds the router. It fails on an invalid JWT secret or unparsable
// templates, never on missing optional infrastructure.
func New(cfg Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil || deps.Generator == nil || deps.Templates == nil || deps.Static == nil {
		return nil, errors.New("server: store, generator, templates and static assets are required")
	}
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.Passwords == nil {
		deps.Passwords = auth.NewPasswordService()
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		deps:   deps,
		logger: logger,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var tokens *auth.TokenService
	if s.config.JWTSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return err
		}
	} else {
		s.logger.Warn("JWT_SECRET not set; authentication is disabled")
	}

	generations := service.NewGenerationService(s.deps.Store, s.deps.Generator, s.deps.Cache, s.deps.Events, s.deps.Static, s.logger)
	todos := service.NewTodoService(s.deps.Store, s.deps.Cache, s.deps.Events, s.logger)

	pageHandler, err := handler.NewPageHandler(s.deps.Templates, tokens != nil, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	generateHandler := handler.NewGenerateHandler(generations, s.logger)

	checks := map[string]handler.Pinger{"database": s.deps.Store}
	if _, isNoop := s.deps.Cache.(cache.Noop); !isNoop {
		checks["cache"] = s.deps.Cache
	}
	healthHandler := handler.NewHealthHandler(checks, s.logger)

	// Public routes.
	static := http.FileServer(http.FS(s.deps.Static))
	s.router.Handle("/static/*", http.StripPrefix("/static", static))
	s.router.Handle("/placeholder.png", static)
	s.router.Get("/healthz", healthHandler.HandleLive)
	s.router.Get("/readyz", healthHandler.HandleReady)
	s.router.Post("/api/generate-image", generateHandler.HandleGenerateImage)

	if tokens == nil {
		s.router.Get("/", pageHandler.HandleHome)
		s.router.Get("/generations", pageHandler.HandleGenerations)
		s.router.Get("/todos", pageHandler.HandleTodos)
		s.router.HandleFunc("/api/auth/*", handler.NotConfigured)
		s.router.HandleFunc("/api/generations", handler.NotConfigured)
		s.router.HandleFunc("/api/generations/*", handler.NotConfigured)
		s.router.HandleFunc("/api/todos", handler.NotConfigured)
		s.router.HandleFunc("/api/todos/*", handler.NotConfigured)
		return nil
	}

	authService := service.NewAuthService(s.deps.Store, tokens, s.deps.Passwords, s.deps.Events, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.config.CookieSecure, s.logger)
	generationHandler := handler.NewGenerationHandler(generations, s.logger)
	todoHandler := handler.NewTodoHandler(todos, s.logger)

	// Pages: anonymous visitors are redirected to / by the page handler.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/", pageHandler.HandleHome)
		r.Get("/generations", pageHandler.HandleGenerations)
		r.Get("/todos", pageHandler.HandleTodos)
	})

	s.router.Post("/api/auth/sign-up", authHandler.HandleSignUp)
	s.router.Post("/api/auth/sign-in", authHandler.HandleSignIn)
	s.router.Post("/api/auth/sign-out", authHandler.HandleSignOut)

	// Protected API routes.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/api/auth/session", authHandler.HandleSession)

		r.Get("/api/generations", generationHandler.HandleList)
		r.Post("/api/generations", generationHandler.HandleCreate)
		r.Delete("/api/generations/{id}", generationHandler.HandleDelete)
		r.Get("/api/generations/{id}/download", generationHandler.HandleDownload)

		r.Get("/api/todos", todoHandler.HandleList)
		r.Post("/api/todos", todoHandler.HandleCreate)
		r.Patch("/api/todos/{id}", todoHandler.HandleUpdate)
		r.Delete("/api/todos/{id}", todoHandler.HandleDelete)
	})

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// closes the store and the event publisher.
func (s *Server) Start() error {
	defer s.closeDeps()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 130 * time.Second, // image generation can take up to two minutes
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.Bool("auth", s.config.JWTSecret != ""),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) closeDeps() {
	if err := s.deps.Events.Close(); err != nil {
		s.logger.Warn("closing event publisher", slog.String("error", err.Error()))
	}
	if err := s.deps.Store.Close(); err != nil {
		s.logger.Warn("closing store", slog.String("error", err.Error()))
	}
}
