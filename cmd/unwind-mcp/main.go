package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edvin/unwind/internal/auth"
	"github.com/edvin/unwind/internal/config"
	"github.com/edvin/unwind/internal/db"
	"github.com/edvin/unwind/internal/logging"
	"github.com/edvin/unwind/internal/mcpserver"
	"github.com/edvin/unwind/internal/metrics"
	"github.com/edvin/unwind/internal/store"
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

	logger := logging.NewLogger(cfg, "unwind-mcp")

	mcpCfg, err := mcpserver.LoadConfig(cfg.MCPConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load MCP config")
	}

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

	srv := mcpserver.New(mcpCfg, verifier, store.NewStores(exec), logger)

	httpServer := &http.Server{
		Addr:         cfg.MCPListenAddr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	metricsServer := metrics.NewServer(cfg.MetricsListenAddr)
	go func() {
		logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", cfg.MCPListenAddr).Msg("starting MCP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	metricsServer.Shutdown(shutdownCtx)
}
