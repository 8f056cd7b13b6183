package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"phonebook/internal/config"
	"phonebook/pkg/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.Init(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	// --- Application ---
	app, cleanup, err := NewApp(cfg, lg)
	if err != nil {
		lg.Fatal("Failed to create app", zap.Error(err))
	}
	defer cleanup()

	// --- Start HTTP Server ---
	lg.Info("Starting server", zap.String("port", cfg.AppPort))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			lg.Error("Server stopped", zap.Error(err))
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	lg.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		lg.Error("Error during Fiber shutdown", zap.Error(err))
	}
	lg.Info("Server gracefully stopped")
}
