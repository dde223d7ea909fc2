package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/mkovalv/city-weather/internal/api/http"
	"github.com/mkovalv/city-weather/internal/auth"
	"github.com/mkovalv/city-weather/internal/cache"
	"github.com/mkovalv/city-weather/internal/config"
	"github.com/mkovalv/city-weather/internal/scheduler"
	"github.com/mkovalv/city-weather/internal/weather"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") == "true" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory record cache with the configured TTL.
	store := cache.New(cfg.CacheTTL())

	client := weather.NewOpenWeatherClient(httpClient, cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey, cfg.Location)
	service := weather.NewService(store, client, logger)

	verifier, err := auth.NewVerifier(ctx, auth.Config{
		Domain:   cfg.AuthDomain,
		Audience: cfg.AuthAudience,
		Secret:   cfg.AuthSecret,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token verification")
	}

	// Optional background cache warmer.
	warmer := scheduler.New(cfg.CityIDs(), cfg.WarmInterval, service, logger)
	if err := warmer.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start cache warmer")
	}
	defer warmer.Stop()

	app := httpapi.New(cfg, service, verifier.Middleware())

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}
