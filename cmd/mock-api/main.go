package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/Raheemullah8/hms-portal/internal/config"
	"github.com/Raheemullah8/hms-portal/internal/mockapi"
	"github.com/Raheemullah8/hms-portal/internal/observability/metrics"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := appconfig.Load()

	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger.Info("starting hms mock API",
		"env", cfg.Env,
		"port", cfg.MockAPIPort,
		"fake_seed", cfg.MockSeedFake,
	)

	handler, err := buildHandler(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Error("failed to seed mock data", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.MockAPIPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "base_url", "http://localhost:"+cfg.MockAPIPort+mockapi.APIPrefix)
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildHandler seeds a fresh store and wires the router with metrics on reg.
func buildHandler(cfg *appconfig.Config, logger *logging.Logger, reg *prometheus.Registry) (http.Handler, error) {
	store := mockapi.NewStore()
	if err := mockapi.Seed(store, cfg.MockSeedFake, time.Now().UnixNano()); err != nil {
		return nil, err
	}
	server := mockapi.NewServer(store, mockapi.Config{
		JWTSecret:      cfg.MockJWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRate:       5,
		AuthBurst:      20,
		Logger:         logger,
		Metrics:        metrics.NewHTTPMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return server.Handler(), nil
}
