package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/zentel/sim-gateway/internal/platform/config"
	"github.com/zentel/sim-gateway/internal/platform/database"
	"github.com/zentel/sim-gateway/internal/platform/logger"
	"github.com/zentel/sim-gateway/internal/sim_service/app"
	pgrepo "github.com/zentel/sim-gateway/internal/sim_service/repository/postgres"
	"github.com/zentel/sim-gateway/internal/sim_service/southbound"
	httptransport "github.com/zentel/sim-gateway/internal/sim_service/transport/http"
)

const (
	serviceName     = "sim_gateway_service"
	shutdownTimeout = 15 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger = appLogger.With("service", serviceName)
	appLogger.Info("Starting service...")

	appLogger.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"server_port", cfg.ServerPort,
		"postgres_dsn_present", cfg.PostgresDSN != "",
		"default_endpoint_id", cfg.DefaultEndpointID,
		"southbound_endpoints", len(cfg.SouthboundEndpoints),
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Database connection pool initialized")

	// Setup application components
	registry := southbound.NewRegistry(cfg.SouthboundEndpoints)
	dispatcher := southbound.NewDispatcher(registry, appLogger, &http.Client{})
	simRepo := pgrepo.NewPgSimRepository(dbPool, appLogger)
	simService := app.NewSimService(simRepo, dispatcher, cfg.DefaultEndpointID, appLogger)
	simHandler := httptransport.NewSimHandler(simService, appLogger, validator.New())

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(httptransport.PrometheusMetricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "SIM gateway service is healthy"})
	})
	r.Route("/api/v1/sim", simHandler.RegisterRoutes)

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.ServerPort), Handler: r}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
			return err
		}
		appLogger.Info("HTTP server stopped gracefully.")
		return nil
	})

	g.Go(func() error {
		stopSignal := make(chan os.Signal, 1)
		signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
			return nil
		case <-groupCtx.Done():
			return nil
		}
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown of HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server shutdown failed", "error", err)
			return err
		}
		return nil
	})

	appLogger.Info("Service is ready and running.")
	if err := g.Wait(); err != nil {
		appLogger.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Service shut down.")
}
