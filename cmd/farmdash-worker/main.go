package main

import (
	"context"
	"errors"
	"os"
	"time"

	"farmdash/internal/amqp"
	"farmdash/internal/cli"
	applog "farmdash/internal/log"
	"farmdash/internal/sheets"
	gsheet "farmdash/internal/sheets/google"
	sheetsmem "farmdash/internal/sheets/memory"
	"farmdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.InfoContext(context.Background(), "Starting farmdash-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		cli.Fatal(logger, "Worker configuration validation failed", err)
	}

	store, err := cli.InitBackend(context.Background(), logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize record store", err)
	}

	var ledger sheets.LedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleLedgerSheet)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		ledger = client
		logger.InfoContext(context.Background(), "Google Sheets ledger enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		ledger = sheetsmem.New()
		logger.InfoContext(context.Background(), "GOOGLE_SPREADSHEET_ID not set, ledger rows kept in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.WarnContext(ctx, "AMQP close error", applog.FieldError, err)
		}
		if err := store.Close(); err != nil {
			logger.ErrorContext(ctx, "Record store close error", applog.FieldError, err)
		}
	})

	w := worker.NewLedgerWorker(store.Store, ledger)
	if err := amqpClient.ConsumeRecordEvents(ctx, w.HandleRecordEvent); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger, "Message consumption failed", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.InfoContext(context.Background(), "Worker stopped gracefully")
}
