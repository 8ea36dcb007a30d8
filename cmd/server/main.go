// Fluxo - Chat-driven BPMN Process Modeling Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxobpm/fluxo/internal/api"
	"github.com/fluxobpm/fluxo/internal/chat"
	"github.com/fluxobpm/fluxo/internal/completion"
	"github.com/fluxobpm/fluxo/internal/config"
	"github.com/fluxobpm/fluxo/internal/identity"
	"github.com/fluxobpm/fluxo/internal/middleware"
	"github.com/fluxobpm/fluxo/internal/modeler"
	"github.com/fluxobpm/fluxo/internal/process"
	"github.com/fluxobpm/fluxo/internal/store"
	"github.com/fluxobpm/fluxo/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "generator", cfg.Generator)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Diagram generator: the completion backend, or local templates when
	// running offline.
	var completer chat.Completer
	switch cfg.Generator {
	case config.GeneratorTemplate:
		completer = completion.NewLocalGenerator()
		slog.Info("Using local template generator")
	default:
		completer = completion.NewClient(cfg)
		if !cfg.CompletionConfigured() {
			slog.Warn("Completion API key not configured, chat turns will fail until it is set")
		}
	}

	// Editor bridge and chat sessions.
	hub := modeler.NewHub()
	bridge := modeler.NewBridge(hub)
	chatManager := chat.NewManager(cfg.Chat, completer, bridge, repo)

	// Initialize handlers.
	authHandler := api.NewAuthHandler(repo, cfg.IsDevelopment())
	chatHandler := chat.NewHandler(cfg, chatManager)
	processHandler := process.NewHandler(process.NewService(repo))
	wsHandler := modeler.NewWebSocketHandler(hub)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))
	r.Use(identity.Middleware())

	authHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)
	processHandler.RegisterRoutes(r)

	// WebSocket endpoint for the editor widget.
	r.Get("/ws/modeler", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Chat streaming responses need an unbounded write window.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("Server stopped")
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"*"}
}
