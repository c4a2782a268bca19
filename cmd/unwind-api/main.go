package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edvin/unwind/internal/api"
	"github.com/edvin/unwind/internal/auth"
	"github.com/edvin/unwind/internal/config"
	"github.com/edvin/unwind/internal/db"
	"github.com/edvin/unwind/internal/logging"
	"github.com/edvin/unwind/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg, "unwind-api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exec := db.NewExecutor(db.Config{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Database:     cfg.DBName,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		MinConns:     cfg.DBPoolMinSize,
		MaxConns:     cfg.DBPoolMaxSize,
		QueryTimeout: cfg.DBQueryTimeout,
	}, logger)
	if err := exec.Connect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer exec.Disconnect()
	metrics.RegisterPoolMetrics(exec)

	verifier := auth.NewVerifier(cfg.JWTSecret, logger)

	srv := api.NewServer(logger, verifier, exec)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}
