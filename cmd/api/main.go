package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"churn-backend/cmd"
	"churn-backend/internal/api"
	"churn-backend/internal/config"
	"churn-backend/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func createServer(cfg *config.Config, service *api.ChurnService) *http.Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	service.AddRoutes(r)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
}

func main() {
	log.Println("Starting churn prediction server...")

	cmd.LoadEnvFile()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	provider, err := cmd.NewArtifactProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to create artifact provider: %v", err)
	}

	loc := cmd.ArtifactLocation(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if cfg.ArtifactSeedDir != "" {
		if err := cmd.SeedArtifacts(ctx, provider, loc, cfg.ArtifactSeedDir); err != nil {
			log.Fatalf("Failed to seed artifacts: %v", err)
		}
	}

	catalog, err := core.LoadCatalog()
	if err != nil {
		log.Fatalf("Failed to load field catalog: %v", err)
	}

	predictor, err := core.LoadPredictor(ctx, provider, loc, catalog)
	if err != nil {
		log.Fatalf("Failed to load model artifacts: %v", err)
	}

	service, err := api.NewChurnService(predictor, api.NewMetrics(), cfg.ShowDiagnostics)
	if err != nil {
		log.Fatalf("Failed to create churn service: %v", err)
	}

	server := createServer(cfg, service)

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server listening", "port", cfg.Port, "artifact_source", cfg.ArtifactSource, "bucket", loc.Bucket, "prefix", loc.Prefix)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
