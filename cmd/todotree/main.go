package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todotree/internal/api"
	"github.com/Kerhoff/todotree/internal/auth"
	"github.com/Kerhoff/todotree/internal/config"
	"github.com/Kerhoff/todotree/internal/metrics"
	"github.com/Kerhoff/todotree/internal/repository/sqlrepo"
	"github.com/Kerhoff/todotree/internal/service"
	"github.com/Kerhoff/todotree/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting todotree...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	isolation := sql.LevelReadCommitted
	if db.Dialect == config.DialectSQLite {
		isolation = sql.LevelDefault
	}
	store := sqlrepo.NewStore(db.DB, isolation)

	// Identity
	var denylist *auth.Denylist
	if cfg.RevokeOnLogout {
		denylist = auth.NewDenylist()
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, denylist)
	hasher := auth.NewHasher(cfg.BcryptCost)

	m := metrics.New()

	// Service layer
	svc := service.New(store, tokens, hasher, m, l, service.Options{
		ConcealForeign: cfg.ConcealForeign,
	})

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Drop expired revocations
	go svc.StartTokenSweeper(ctx, service.DefaultSweepInterval)

	// HTTP API
	apiServer := api.NewServer(svc, l, m, api.Options{AllowedOrigins: cfg.CORSAllowedOrigins})
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(l, logrus.Fields{
			"port":     cfg.Port,
			"dialect":  db.Dialect,
			"revoking": cfg.RevokeOnLogout,
		}).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	// Prometheus metrics
	var metricsServer *http.Server
	if cfg.PrometheusPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		metricsServer = &http.Server{
			Addr:              ":" + cfg.PrometheusPort,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			l.Infof("Metrics server listening on :%s", cfg.PrometheusPort)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Errorf("Metrics server error: %v", err)
			}
		}()
	}

	l.Info("todotree started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown error: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			l.Errorf("Metrics server shutdown error: %v", err)
		}
	}

	l.Info("todotree stopped")
}
