package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"privydocs/internal/auth"
	"privydocs/internal/config"
	"privydocs/internal/handler"
	"privydocs/internal/middleware"
	"privydocs/internal/repository"
	"privydocs/internal/service/registry"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging, optionally teeing to a log file
	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, "server", cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to create log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}
	logger := config.NewLogger(cfg, logOutput)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier: JWKS in deployed environments, shared secret for local development
	jwtVerifier, err := newVerifier(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the journal and restore the registry from it
	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer backend.Close()

	components, err := registry.Setup(ctx, backend.Journal, registry.SystemClock{}, cfg.JournalFlushInterval, logger)
	if err != nil {
		log.Fatalf("Failed to restore registry: %v", err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go components.Hub.Run(hubCtx)

	logger.Info("services initialized",
		"documents", components.Registry.TotalDocuments(ctx),
	)

	// Create handlers
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	docHandler := handler.NewDocumentHandler(components.Registry, logger)
	accessHandler := handler.NewAccessHandler(components.Registry, logger)
	eventsHandler := handler.NewEventsHandler(components.Hub, corsOrigins, logger)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents", docHandler.ListMyDocuments)
	mux.HandleFunc("GET /api/documents/count", docHandler.CountDocuments) // More specific than {id}
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("PUT /api/documents/{id}/body", docHandler.UpdateDocumentBody)
	mux.HandleFunc("GET /api/principals/{principal}/documents", docHandler.ListPrincipalDocuments)

	// Access routes
	mux.HandleFunc("GET /api/documents/{id}/collaborators", accessHandler.ListCollaborators)
	mux.HandleFunc("POST /api/documents/{id}/collaborators", accessHandler.GrantAccess)
	mux.HandleFunc("DELETE /api/documents/{id}/collaborators/{principal}", accessHandler.RevokeAccess)
	mux.HandleFunc("GET /api/documents/{id}/access/{principal}", accessHandler.HasAccess)

	// Live event feed
	mux.HandleFunc("GET /api/events", eventsHandler.Stream)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Request ID → Recovery → Auth → Routes
	h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestID(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"ETag", middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived websocket feeds
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close feeds first so hijacked websocket connections do not hold up Shutdown
	stopHub()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	if err := components.Outbox.Close(shutdownCtx); err != nil {
		logger.Error("final journal flush failed",
			"error", err,
			"pending", components.Outbox.Pending(),
		)
	}

	logger.Info("server stopped")
}

// newVerifier picks the token verifier for the configured environment
func newVerifier(cfg *config.Config, logger *slog.Logger) (auth.JWTVerifier, error) {
	if cfg.JWKSURL != "" {
		return auth.NewJWKSVerifier(cfg.JWKSURL, logger)
	}
	if cfg.Environment == "prod" {
		return nil, errors.New("JWKS_URL is required in prod")
	}
	logger.Warn("JWKS_URL not set, accepting HS256 tokens signed with JWT_SECRET")
	return auth.NewHMACVerifier(cfg.JWTSecret, logger)
}
