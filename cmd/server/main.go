package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Andi5986/flight-search-engine/internal/airports"
	"github.com/Andi5986/flight-search-engine/internal/api"
	"github.com/Andi5986/flight-search-engine/internal/config"
	"github.com/Andi5986/flight-search-engine/internal/flights"
	"github.com/Andi5986/flight-search-engine/internal/serpapi"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	// A .env file is a dev convenience; in production the variables are set
	// on the process directly.
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	dir, err := airports.Load(cfg.AirportsFile)
	if err != nil {
		return fmt.Errorf("loading airport directory: %w", err)
	}

	// Wire dependencies.
	builder := flights.NewBuilder(dir)
	client := serpapi.NewClient(cfg.APIKey, cfg.Currency, cfg.Locale)
	policy := flights.PresentPolicy{SortByPrice: cfg.SortByPrice}
	handlers := api.NewHandlers(builder, client, dir, policy, log)

	router := api.NewRouter(handlers, cfg.PublicDir, cfg.FrontendOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
		// The write timeout must outlast the provider call, which is itself
		// capped at 30s.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port, "cities", dir.Len())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}
