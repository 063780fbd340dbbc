package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"farmdash/internal/amqp"
	"farmdash/internal/cli"
	"farmdash/internal/dashboard"
	apphttp "farmdash/internal/http"
	applog "farmdash/internal/log"
	"farmdash/internal/seed"
	"farmdash/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	ctx := context.Background()

	store, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize record store", err)
	}

	deps := services.Deps{Store: store.Store}
	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient != nil {
		deps.Publisher = amqpClient
	}
	svc := services.New(deps)

	if cfg.SeedFile != "" {
		if err := seedFrom(ctx, svc, cfg.SeedFile); err != nil {
			cli.Fatal(logger, "Failed to seed record store", err)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Services:       svc,
		Dashboard:      dashboard.NewLoader(dashboard.FromServices(svc)),
		Ready:          store.Ready,
		Logger:         logger,
		AuthSecret:     cfg.AuthJWTSecret,
		AuthRequired:   cfg.AuthRequired,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPM:   cfg.RateLimitRPM,
		RequestTimeout: cfg.RequestTimeout,
		TrustedProxies: cfg.TrustedProxies,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.ErrorContext(ctx, "Server shutdown error", applog.FieldError, err)
		}
		closeAMQP(ctx, logger, amqpClient)
		if err := store.Close(); err != nil {
			logger.ErrorContext(ctx, "Record store close error", applog.FieldError, err)
		}
	})

	logger.InfoContext(ctx, "Starting farmdash server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.InfoContext(ctx, "Server stopped gracefully")
}

func seedFrom(ctx context.Context, svc *services.Services, path string) error {
	f, err := seed.ParseFile(path)
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, svc, f)
	return err
}

func closeAMQP(ctx context.Context, logger *applog.Logger, c *amqp.Client) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.WarnContext(ctx, "AMQP close error", applog.FieldError, err)
	}
}
