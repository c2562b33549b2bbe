// Package main is the entry point for the inference gateway binary. At
// startup it resolves the configured model through the registry, downloads
// the artifact, and serves predictions; a gateway with no model configured
// starts degraded, answering health checks but 503 on prediction routes.
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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexusml/nexus/internal/api"
	"github.com/nexusml/nexus/internal/config"
	"github.com/nexusml/nexus/internal/inference"
	"github.com/nexusml/nexus/internal/registry"
	"github.com/nexusml/nexus/internal/safego"
	"github.com/nexusml/nexus/internal/storage"
	"github.com/nexusml/nexus/internal/telemetry"

	// Register storage backends.
	_ "github.com/nexusml/nexus/internal/storage/azure"
	_ "github.com/nexusml/nexus/internal/storage/gcs"
	_ "github.com/nexusml/nexus/internal/storage/local"
	_ "github.com/nexusml/nexus/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Prometheus metrics live on a dedicated port so the scrape path never
	// rides the public API ingress.
	if cfg.Telemetry.MetricsEnabled {
		metricsAddr := fmt.Sprintf(":%d", cfg.Telemetry.PrometheusPort)
		safego.Go(func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("starting Prometheus metrics server", "addr", metricsAddr)
			srv := &http.Server{
				Addr:         metricsAddr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		})
	}

	gateway := api.NewServer(cfg)
	gateway.Start()

	if cfg.Model.Name == "" {
		slog.Warn("no model configured; gateway starts degraded",
			"hint", "set model.name (NEXUS_MODEL_NAME) to serve predictions")
	} else {
		if err := loadModel(cfg, gateway); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      gateway.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	safego.Go(func() {
		slog.Info("starting inference gateway",
			"addr", cfg.Server.GetAddress(),
			"storage_provider", cfg.Storage.Provider,
			"batch_max_size", cfg.Batch.MaxSize,
			"batch_linger", cfg.Batch.Linger)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gateway")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Drain in-flight batches only after the listener stops accepting work.
	gateway.Stop()

	slog.Info("gateway stopped gracefully")
	return nil
}

func loadModel(cfg *config.Config, gateway *api.Server) error {
	backend, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}

	regFile := registry.NewFile(cfg.Registry.Path)
	loader := inference.NewLoader(regFile, backend, cfg.Model.ScratchDir, cfg.Model.RuntimeURL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	model, err := loader.Load(ctx, cfg.Model.Name, cfg.Model.Version)
	if err != nil {
		return fmt.Errorf("failed to load model %q (%s): %w", cfg.Model.Name, cfg.Model.Version, err)
	}
	gateway.SetModel(model)
	return nil
}
