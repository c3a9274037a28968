package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/woundlens-ai/cmd/mainconfig"
	"github.com/wolfman30/woundlens-ai/internal/analysis"
	"github.com/wolfman30/woundlens-ai/internal/api/router"
	"github.com/wolfman30/woundlens-ai/internal/archive"
	appconfig "github.com/wolfman30/woundlens-ai/internal/config"
	"github.com/wolfman30/woundlens-ai/internal/history"
	"github.com/wolfman30/woundlens-ai/internal/http/handlers"
	"github.com/wolfman30/woundlens-ai/internal/observability/metrics"
	"github.com/wolfman30/woundlens-ai/internal/provider"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not read .env: %v\n", err)
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting woundlens-ai API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"default_model", cfg.DefaultModel,
	)

	ctx := context.Background()
	metricsHandler, providerMetrics := setupMetrics()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	creds := mainconfig.ProviderCredentials(cfg, mainconfig.NewBedrockClient(awsCfg, cfg), awsCfg.Credentials)
	registry := provider.NewRegistry(provider.NewSelector(creds, provider.Options{
		Logger:            logger,
		Metrics:           providerMetrics,
		RequestsPerSecond: cfg.ProviderRateLimit,
	}), mainconfig.AllowedModels(cfg))
	logger.Info("provider models enabled", "models", registry.Models())

	coordOpts := []analysis.Option{
		analysis.WithMetrics(providerMetrics),
		analysis.WithHistoryBuilder(history.NewBuilder(cfg.DocumentDir, logger)),
	}
	if store := setupArchive(cfg, logger, func() archive.S3API { return mainconfig.NewS3Client(awsCfg, cfg) }); store != nil {
		coordOpts = append(coordOpts, analysis.WithArchive(store))
	}

	analysisHandler := handlers.NewAnalysisHandler(handlers.AnalysisHandlerConfig{
		Clients:            registry,
		DefaultModel:       cfg.DefaultModel,
		UploadDir:          cfg.UploadDir,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		Logger:             logger,
		CoordinatorOptions: coordOpts,
	})

	stop := make(chan struct{})

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		Analysis:           analysisHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		APIKey:             cfg.APIKey,
		RateLimit:          cfg.HTTPRateLimit,
		RateBurst:          cfg.HTTPRateBurst,
		RequestTimeout:     cfg.RequestTimeout,
		Stop:               stop,
	}
	r := router.New(routerCfg)

	// Create HTTP server. Provider calls can take a while, so the write
	// timeout follows the request timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	close(stop)
	if err := registry.Close(); err != nil {
		logger.Error("failed to close provider clients", "error", err)
	}

	logger.Info("server stopped")
}

// setupMetrics builds a dedicated registry with runtime collectors and the
// provider metrics, and returns its /metrics handler.
func setupMetrics() (http.Handler, *metrics.ProviderMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewProviderMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), m
}

// setupArchive returns nil when no document bucket is configured.
func setupArchive(cfg *appconfig.Config, logger *logging.Logger, newClient func() archive.S3API) *archive.Store {
	bucket := strings.TrimSpace(cfg.DocumentBucket)
	if bucket == "" {
		logger.Info("history document archive disabled")
		return nil
	}
	logger.Info("archiving history documents to s3", "bucket", bucket)
	return archive.NewStore(newClient(), bucket, logger)
}
