// Package main is the entry point for the kvtrade API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	v1 "kvtrade/internal/infrastructure/http/v1"
	"kvtrade/internal/infrastructure/storage/postgres"
	"kvtrade/pkg/logger"
	"kvtrade/pkg/numerator"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger.Init(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "json"))
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "starting kvtrade server")

	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		logger.Fatal(ctx, "failed to connect to database", "error", err)
	}
	defer pool.Close()
	logger.Info(ctx, "database connection established")

	stmtTimeout := getEnvDuration("STATEMENT_TIMEOUT", 30*time.Second)
	txManager := postgres.NewTxManager(pool, stmtTimeout)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize audit service", "error", err)
	}

	router := v1.NewRouter(v1.RouterConfig{
		Pool:      pool,
		TxManager: txManager,
		Numerator: numerator.New(txManager),
		Audit:     auditService,
	})

	addr := getEnv("HTTP_ADDR", ":8080")
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal(ctx, "server forced to shutdown", "error", err)
	}

	logger.Info(ctx, "server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
