package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/log"
	"ledger/internal/metrics"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting ledger-worker")

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
		return
	}
	if cfg.AMQPURL == "" {
		logger.Info("Google Sheets mirror disabled - no AMQP_URL provided")
		return
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	mirror, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	m := metrics.New()
	w := worker.NewMirrorWorker(mirror, m, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		// The admin server follows the consumer down.
		defer cancel()
		return w.Run(gctx, client)
	})

	if cfg.WorkerPort != "" {
		admin := &http.Server{
			Addr:              ":" + cfg.WorkerPort,
			Handler:           worker.AdminHandler(m.Handler()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		logger.Info("Worker admin endpoint listening", "addr", admin.Addr)
		g.Go(func() error {
			return cli.Serve(gctx, logger, admin, cfg.ShutdownTimeout)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Mirror worker failed", log.FieldError, err)
		client.Close()
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
