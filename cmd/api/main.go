package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/config"
	"github.com/UVMHacks2025/BashProShop/internal/db"
	httpx "github.com/UVMHacks2025/BashProShop/internal/http"
	"github.com/UVMHacks2025/BashProShop/internal/observability"
	"github.com/UVMHacks2025/BashProShop/internal/redisclient"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// a missing .env is fine; real environments set variables directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "bashproshop-api",
		Env:         cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("tracing setup failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.DBURL, 10)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	schemaCtx, cancel := config.WithTimeout(10 * time.Second)
	err = db.EnsureSchema(schemaCtx, pool)
	cancel()
	if err != nil {
		log.Error("schema setup failed", "err", err)
		os.Exit(1)
	}

	var redis *redisclient.Client
	if cfg.RedisAddr != "" {
		redis = redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() { _ = redis.Close() }()

		pingCtx, cancel := config.WithTimeout(2 * time.Second)
		err := redis.Ping(pingCtx)
		cancel()
		if err != nil {
			// revocation checks will fail closed until redis is reachable
			log.Warn("redis not reachable at start-up", "addr", cfg.RedisAddr, "err", err)
		}
	} else {
		log.Info("REDIS_ADDR not set, session revocations kept in memory")
	}

	if !cfg.Mail.Configured() {
		log.Warn("mail not configured, payment confirmation emails are disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	router := httpx.NewRouter(log, pool, cfg, httpx.Options{
		Prom:     prom,
		Gatherer: reg,
		Redis:    redis,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// checkout creation waits on the processor
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown

	select {
	case <-ctx.Done():
		log.Info("server shutting down")
	case err := <-serverErr:
		if err != nil {
			log.Error("server failed", "err", err)
		}
	}

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
}
