/*
Package main is the entry point for the chat relay server.

It is responsible for loading configuration, initializing the global logging system,
opening the message store, setting up the HTTP server and the relay engine, and
gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relaychat/internal/app/relay"
	"relaychat/internal/app/store"
	"relaychat/internal/configs"
	"relaychat/internal/handler"
	"relaychat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("history_limit", cfg.HistoryLimit).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the message store: PostgreSQL when a DSN is configured, the
	// embedded Badger store otherwise.
	var messageStore store.Store
	if cfg.DatabaseDSN != "" {
		messageStore, err = store.NewPostgresStore(cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to open PostgreSQL message store")
		}
		logx.Info("Message store ready", "backend", "postgres")
	} else {
		messageStore, err = store.NewBadgerStore(cfg.DataDir)
		if err != nil {
			logx.Fatal(err, "Failed to open Badger message store")
		}
		logx.Info("Message store ready", "backend", "badger", "data_dir", cfg.DataDir)
	}

	// Initialize the relay engine
	engine := relay.NewEngine(messageStore, cfg.HistoryLimit, cfg.HistoryTimeout)

	// Setup HTTP server and routes
	deps := &handler.AppDeps{
		Engine: engine,
		Store:  messageStore,
		Config: cfg,
	}
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Chat relay starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	engine.Shutdown()

	if err := messageStore.Close(); err != nil {
		logx.Error(err, "Failed to close message store")
	}

	logx.Info("Server gracefully stopped.")
}
