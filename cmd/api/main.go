package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartsync/internal/api"
	"cartsync/internal/config"
	"cartsync/internal/coupon"
	"cartsync/internal/engine"
	"cartsync/internal/handler"
	"cartsync/internal/persist"
	"cartsync/internal/router"
	"cartsync/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting cartsync shell")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize persistent store
	st, err := store.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	// Initialize upstream API client (catalog lookup + remote cart)
	client := api.NewClient(cfg.Upstream, logger)

	// Initialize the cart engine and hydrate it from the stored snapshot
	eng := engine.New(client, client, logger)

	debouncer := persist.NewDebouncer(st, cfg.Persist.Key, time.Duration(cfg.Persist.DebounceMS)*time.Millisecond, logger)
	defer debouncer.Close()

	if state, ok := debouncer.Load(ctx); ok {
		eng.Restore(state)
		logger.Info().
			Int("line_count", len(state.Lines)).
			Int("saved_count", len(state.Saved)).
			Msg("cart hydrated from stored snapshot")
	} else {
		logger.Info().Msg("no stored cart snapshot, starting empty")
	}

	// Every state change from here on schedules a debounced write
	unsubscribe := eng.Subscribe(debouncer.Notify)
	defer unsubscribe()

	// Initialize the optional coupon validation collaborator
	var validator coupon.Validator
	if cfg.Coupon.Enabled {
		fileLoader := coupon.NewFileLoader(logger)
		var loader coupon.Loader = fileLoader

		if cfg.Coupon.S3Enabled {
			s3Loader, err := coupon.NewS3Loader(ctx, cfg.Coupon.S3Bucket, cfg.Coupon.S3Region, logger)
			if err != nil {
				logger.Warn().Err(err).Msg("S3 loader unavailable, using local coupon files only")
			} else {
				loader = coupon.NewFallbackLoader(s3Loader, fileLoader, cfg.Coupon.S3Prefix, true, logger)
			}
		}

		validator, err = coupon.NewValidator(ctx, &coupon.ValidatorConfig{
			FilePaths:     cfg.Coupon.FilePaths,
			MinMatchCount: cfg.Coupon.MinMatchCount,
		}, loader, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize coupon validator: %w", err)
		}
		defer validator.Close()
	}

	// Kick off an initial reconciliation against the server-side cart
	go eng.Sync(ctx)

	// Initialize HTTP shell
	cartHandler := handler.NewCartHandler(eng, validator, logger)
	mux := router.New(cartHandler, cfg.Auth.APIKey, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.Server.Address()).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	// Persist the latest cart state before exit
	debouncer.Flush(shutdownCtx)

	logger.Info().Msg("cartsync shell stopped")
	return nil
}
