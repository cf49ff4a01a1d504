// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/astrodesk/consult-platform/internal/config"
	"github.com/astrodesk/consult-platform/internal/handler"
	"github.com/astrodesk/consult-platform/internal/llm"
	"github.com/astrodesk/consult-platform/internal/middleware"
	natsclient "github.com/astrodesk/consult-platform/internal/nats"
	"github.com/astrodesk/consult-platform/internal/service"
	"github.com/astrodesk/consult-platform/internal/store"
	"github.com/astrodesk/consult-platform/internal/wallet"
	"github.com/astrodesk/consult-platform/pkg/logger"
	"github.com/astrodesk/consult-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "consult-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing")
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the store
	st, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Connect to NATS if configured; billing events are optional
	var nc *natsclient.Client
	var publisher service.EventPublisher
	if cfg.NATSURL != "" {
		nc, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer nc.Close()

		events := natsclient.NewEventPublisher(nc)
		if err := events.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure billing stream", zap.Error(err))
			os.Exit(1)
		}
		publisher = events
	}

	// Initialize LLM client
	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	} else if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	} else {
		log.Error("no LLM API key configured")
		os.Exit(1)
	}
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Initialize services
	ledger := wallet.NewLedger(st, cfg.WelcomeBonus, log)
	conversationSvc := service.NewConversationService(st, log)
	directorySvc := service.NewDirectoryService(st)
	pipeline := service.NewMessagePipeline(st, ledger, llmClient, publisher, cfg.DefaultMessageCost, cfg.DefaultModel, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(nc)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(pipeline, conversationSvc, log)
	walletHandler := handler.NewWalletHandler(ledger, cfg.WalletTxLimit, log)
	directoryHandler := handler.NewDirectoryHandler(directorySvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Message-Id", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Setup directory
		r.Get("/personas", directoryHandler.ListPersonas)
		r.With(middleware.RequireScope("admin")).Post("/personas", directoryHandler.CreatePersona)
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", directoryHandler.ListProfiles)
			r.Post("/", directoryHandler.CreateProfile)
			r.Delete("/{id}", directoryHandler.DeleteProfile)
		})

		// Wallet
		r.Get("/wallet", walletHandler.Get)
		r.Post("/wallet", walletHandler.Recharge)

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Delete("/", conversationHandler.Delete)

				// Billed streaming send
				r.With(middleware.SendRateLimit(cfg.SendRateLimitRequests, cfg.RateLimitWindow)).
					Post("/messages", messageHandler.Send)
				r.Patch("/messages/{messageId}", messageHandler.Update)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
