package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miradorstack/mirador-status/internal/api"
	"github.com/miradorstack/mirador-status/internal/config"
	"github.com/miradorstack/mirador-status/internal/engine"
	"github.com/miradorstack/mirador-status/internal/metrics"
	"github.com/miradorstack/mirador-status/internal/repo"
	"github.com/miradorstack/mirador-status/internal/services"
	"github.com/miradorstack/mirador-status/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting mirador-status",
		slog.String("address", cfg.Server.Address),
		slog.String("http_address", cfg.Server.HTTPAddress),
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	server, err := api.NewServer(cfg.Server)
	if err != nil {
		logger.Error("failed to create gRPC server", slog.Any("error", err))
		os.Exit(1)
	}

	pipeline := engine.NewPipeline(logger, cfg.PagerDuty.Subdomain)
	source := repo.NewFileSource(cfg.Source.Path)
	logger.Info("reading service records", slog.String("path", source.Path()))
	dashboard := services.NewDashboardService(logger, source, pipeline, server.Health())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dashboard.Refresh(ctx); err != nil {
		// Keep serving; the next tick or file change may succeed.
		logger.Warn("initial refresh failed", slog.Any("error", err))
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	var httpServer *http.Server
	if cfg.Server.HTTPAddress != "" {
		if !strings.EqualFold(cfg.Logging.Level, "debug") {
			gin.SetMode(gin.ReleaseMode)
		}
		httpServer = &http.Server{
			Addr:              cfg.Server.HTTPAddress,
			Handler:           api.NewRouter(logger, dashboard),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
		}
		go func() {
			logger.Info("http server listening", slog.String("address", cfg.Server.HTTPAddress))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	go refreshLoop(ctx, logger, dashboard, cfg.Source.RefreshInterval)

	if cfg.Source.Watch {
		go func() {
			err := repo.Watch(ctx, logger, source.Path(), func() {
				if err := dashboard.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("refresh after file change failed", slog.Any("error", err))
				}
			})
			if err != nil {
				logger.Warn("record watcher stopped", slog.Any("error", err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	for _, srv := range []*http.Server{httpServer, metricsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http shutdown", slog.String("address", srv.Addr), slog.Any("error", err))
		}
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("mirador-status stopped")
}

// refreshLoop reloads the record source every interval. A zero interval
// disables periodic refreshes.
func refreshLoop(ctx context.Context, logger *slog.Logger, dashboard *services.DashboardService, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := dashboard.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("scheduled refresh failed", slog.Any("error", err))
			}
		}
	}
}
