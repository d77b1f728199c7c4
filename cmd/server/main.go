package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/subject-variants-server/internal/api"
	"github.com/subject-variants-server/internal/config"
	"github.com/subject-variants-server/internal/logging"
	"github.com/subject-variants-server/internal/service"
	"github.com/subject-variants-server/pkg/external"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.NewLogger(cfg.Logging)
	logger.Infof("Starting subject-variants server on %s:%d", cfg.Server.Host, cfg.Server.Port)

	// Wire the remote clients and the pipeline services
	genomics := external.NewResilientGenomicsClient(
		external.GenesConfig{
			BaseURL:   cfg.GenesAPI.BaseURL,
			Timeout:   cfg.GenesAPI.Timeout,
			RateLimit: cfg.GenesAPI.RateLimit,
		},
		external.FHIRConfig{
			BaseURL:   cfg.FHIR.BaseURL,
			Timeout:   cfg.FHIR.Timeout,
			RateLimit: cfg.FHIR.RateLimit,
		},
		logger,
	)

	resolver, err := service.NewResolver(genomics, cfg.Cache.MaxEntries, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create coordinate resolver")
	}
	pipelines := service.NewPipelines(resolver, genomics, logger)

	// Create server
	server := api.NewServer(configManager, pipelines, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}

	logger.Info("Server stopped")
}
