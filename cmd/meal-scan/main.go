// cmd/meal-scan/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"

	"mcp-meal-scan/internal/analysis"
	"mcp-meal-scan/internal/config"
	"mcp-meal-scan/internal/imagestore"
	"mcp-meal-scan/internal/models"
	"mcp-meal-scan/internal/openai"
	"mcp-meal-scan/internal/server"
	"mcp-meal-scan/internal/stubmodel"
)

var (
	configPath = flag.String("config", "", "Path to a YAML config file")
	port       = flag.Int("port", 0, "Port for HTTP transport (overrides config)")
	host       = flag.String("host", "", "Host address (overrides config)")
	address    = flag.String("address", "", "Address (alias for host)")
	provider   = flag.String("provider", "", "Vision model provider: openai or stub (overrides config)")
	analyze    = flag.String("analyze", "", "Analyze one photo, print the outcome as JSON and exit")
	version    = flag.Bool("version", false, "Show version")
)

type visionModel interface {
	analysis.VisionModel
	Name() string
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("mcp-meal-scan version 1.0.0")
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	// Use address if provided, otherwise use host
	if *host != "" {
		cfg.Host = *host
	}
	if *address != "" {
		cfg.Host = *address
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *provider != "" {
		cfg.Provider = *provider
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	logger := cfg.NewLogger(os.Stderr)
	log.SetHandler(logger.Handler)
	log.SetLevel(logger.Level)

	if cfg.CredentialRequired() && !cfg.CredentialConfigured() {
		logger.Warn("No vision model credential configured (set OPENAI_API_KEY); analyses will fail until it is")
	}

	model := newVisionModel(cfg)
	analyzer := analysis.NewClient(cfg, model, imagestore.NewLocalStore(cfg.MaxImageBytes), logger)

	if *analyze != "" {
		os.Exit(runOnce(analyzer, *analyze))
	}

	srv, err := server.NewMealScanServer(cfg, analyzer, model.Name(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-errCh:
		logger.WithError(err).Error("Server error")
	}

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during shutdown")
	}
}

func newVisionModel(cfg *config.Config) visionModel {
	if cfg.Provider == config.ProviderStub {
		return stubmodel.NewClient()
	}
	return openai.NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.RequestTimeout)
}

// runOnce analyzes a single photo and returns the process exit code.
func runOnce(analyzer *analysis.Client, image string) int {
	outcome := analyzer.Analyze(context.Background(), models.ImageReference(image))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		log.WithError(err).Error("Failed to encode outcome")
		return 1
	}
	if !outcome.OK {
		return 1
	}
	return 0
}
