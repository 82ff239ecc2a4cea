package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"retirement_planner/internal/ai"
	"retirement_planner/internal/config"
	"retirement_planner/internal/logger"
	"retirement_planner/internal/market"
	"retirement_planner/internal/market/alpaca"
	"retirement_planner/internal/web"
)

const VersionFile = "version.latest"

func main() {
	// Load configuration first to get logger settings
	cfg := config.Load()
	cfg.Version = readVersion()

	closer := logger.Setup(cfg)
	defer closer.Close()

	fetcher := market.NewFetcher(alpaca.NewProvider(cfg))

	narrator, err := ai.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize narrative provider: %v", err)
	}

	handler, err := web.NewHandler(cfg, fetcher, narrator)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize web handler: %v", err)
	}

	// WriteTimeout stays unset; LLM_TIMEOUT_SEC bounds narrative calls.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Retirement Planner %s listening on http://%s (provider=%s, debug=%t)",
			cfg.Version, cfg.Addr(), narrator.Provider(), cfg.Debug())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Printf("Error starting server: %v", err)
		return
	case sig := <-quit:
		log.Printf("Shutting down server: %s received", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server exited")
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}
