// Rabieh Flowers storefront server.
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rabiehflowers/storefront/internal/api"
	"github.com/rabiehflowers/storefront/internal/auth"
	"github.com/rabiehflowers/storefront/internal/catalog"
	"github.com/rabiehflowers/storefront/internal/chat"
	"github.com/rabiehflowers/storefront/internal/config"
	"github.com/rabiehflowers/storefront/internal/middleware"
	"github.com/rabiehflowers/storefront/internal/store"
	"github.com/rabiehflowers/storefront/web"
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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

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

	catalogStore := catalog.NewStore(context.Background(), repo)
	slog.Info("Catalog ready", "flowers", len(catalogStore.List()))

	gate := auth.NewGate(context.Background(), repo, cfg.SessionTTL)

	// Chat transcript logging (optional).
	var transcript *chat.TranscriptLogger
	if cfg.Transcript.Enabled {
		transcript, err = chat.NewTranscriptLogger(cfg.Transcript.Dir, cfg.Transcript.QueueSize)
		if err != nil {
			slog.Error("Failed to initialize chat transcript logger", "error", err)
			os.Exit(1)
		}
		defer transcript.Close()
	}

	// Gemini assistant (optional). Without an API key the chat endpoints stay
	// up and answer with the phone-number fallback.
	var streamer chat.Streamer
	if cfg.Chat.GeminiAPIKey != "" {
		system := chat.SystemInstruction(cfg.ShopName, cfg.ShopPhone, catalogStore.List())
		gemini, err := chat.NewGeminiStreamer(context.Background(), cfg.Chat.GeminiAPIKey, cfg.Chat.Model, system)
		if err != nil {
			slog.Warn("Failed to initialize Gemini client, assistant will use fallback replies", "error", err)
		} else {
			streamer = gemini
			defer gemini.Close()
			slog.Info("Gemini assistant enabled", "model", cfg.Chat.Model)
		}
	} else {
		slog.Info("Assistant disabled (GEMINI_API_KEY not set)")
	}

	chatService := chat.NewService(streamer, transcript)
	defer chatService.Close()

	// Initialize handlers.
	catalogHandler := api.NewCatalogHandler(catalogStore, cfg.MaxUploadSize)
	authHandler := api.NewAuthHandler(gate, cfg.IsDevelopment())
	healthHandler := api.NewHealthHandler(repo)
	chatHandler := chat.NewHandler(chatService, cfg.Chat.RateLimit, cfg.Chat.RateWindow, cfg.IsDevelopment())
	wsHandler := chat.NewWebSocketHandler(chatService)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	corsOrigins := []string{"*"}
	if !cfg.IsDevelopment() {
		corsOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(corsOrigins))

	// Public routes.
	healthHandler.RegisterHealth(r)
	catalogHandler.RegisterPublic(r)
	authHandler.RegisterPublic(r)
	chatHandler.RegisterRoutes(r)

	// Owner routes.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireOwner(gate))
		catalogHandler.RegisterOwner(r)
		authHandler.RegisterOwner(r)
	})

	// WebSocket endpoint for the chat widget.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Create server.
	// Note: SSE connections require long timeouts (no WriteTimeout).
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,                 // 0 = no timeout for SSE support
		IdleTimeout:  120 * time.Second, // 2 minutes for idle connections
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
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
