package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"mediaremote/internal/api"
	"mediaremote/internal/clock"
	"mediaremote/internal/config"
	"mediaremote/internal/ha"
	"mediaremote/internal/widget"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultAPIPort = 8081

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, using environment variables")
	}

	haURL := os.Getenv("HA_URL")
	haToken := os.Getenv("HA_TOKEN")
	configPath := os.Getenv("WIDGET_CONFIG")
	if configPath == "" {
		configPath = "widget.yaml"
	}

	if haURL == "" || haToken == "" {
		logger.Fatal("HA_URL and HA_TOKEN environment variables must be set")
	}

	apiPort := defaultAPIPort
	if portStr := os.Getenv("API_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Fatal("Invalid API_PORT", zap.String("value", portStr))
		}
		apiPort = port
	}

	cfg, err := config.Load(configPath, logger)
	if err != nil {
		logger.Fatal("Failed to load widget configuration",
			zap.String("path", configPath), zap.Error(err))
	}

	logger.Info("Starting Media Remote Widget",
		zap.String("url", haURL),
		zap.Strings("entities", cfg.Entities))

	// Create HA client
	client := ha.NewClient(haURL, haToken, logger)

	// Connect to Home Assistant
	if err := client.Connect(); err != nil {
		logger.Fatal("Failed to connect to Home Assistant", zap.Error(err))
	}
	defer client.Disconnect()

	logger.Info("Connected to Home Assistant")

	// Create and start the widget core
	w := widget.New(client, clock.NewRealClock(), cfg, logger)
	if err := w.Start(); err != nil {
		logger.Fatal("Failed to start widget", zap.Error(err))
	}
	defer w.Stop()

	// Expose the widget over HTTP
	server := api.NewServer(w, logger, apiPort)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start API server", zap.Error(err))
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Widget running. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-sigChan

	logger.Info("Shutting down gracefully...")

	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop API server", zap.Error(err))
	}
}
