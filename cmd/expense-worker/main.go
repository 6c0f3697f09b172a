package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/sheets/google"
	"expensetracker/internal/sheets/memory"
	"expensetracker/internal/worker"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.MirrorEnabled() {
		logger.Error("AMQP_URL is required to run the mirror worker",
			log.FieldErrorType, log.ErrorTypeConfiguration)
		return errors.New("mirror disabled")
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	repo := cli.InitSQLite(ctx, logger, cfg.SQLiteDBPath)
	defer repo.Close()

	mirror, err := newMirror(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize mirror", log.FieldError, err, "backend", cfg.MirrorBackend)
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
		return err
	}
	defer client.Close()

	mw := worker.NewMirrorWorker(repo, mirror, logger)

	// Catch up on anything stored while the worker was down.
	if n, err := mw.Backfill(ctx); err != nil {
		logger.Error("Startup backfill failed", log.FieldError, err)
	} else {
		logger.Info("Startup backfill complete", log.FieldCount, n)
		verifyMirror(ctx, mw, logger)
	}

	logger.Info("Starting expense-worker",
		"backend", cfg.MirrorBackend,
		"queue", cfg.AMQPQueue,
		log.FieldOperation, log.OpStartup)

	services := []cli.Service{{
		Name: "consumer",
		Run: func(ctx context.Context) error {
			return client.ConsumeExpenseCreated(ctx, mw.HandleExpenseCreated)
		},
	}}
	if cfg.MirrorBackfillInterval > 0 {
		services = append(services, cli.Service{
			Name: "backfill",
			Run: func(ctx context.Context) error {
				return periodicBackfill(ctx, mw, cfg.MirrorBackfillInterval, logger)
			},
		})
	}
	return cli.Run(ctx, logger, cfg.ShutdownTimeout, services...)
}

func newMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.Mirror, error) {
	switch cfg.MirrorBackend {
	case config.MirrorSheets:
		client, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureHeader(ctx); err != nil {
			return nil, fmt.Errorf("prepare sheet %q: %w", cfg.GoogleSheetName, err)
		}
		logger.Info("Google Sheets mirror ready", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
		return client, nil
	case config.MirrorMemory:
		logger.Warn("Using in-memory mirror; mirrored rows are lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown mirror backend %q", cfg.MirrorBackend)
	}
}

func periodicBackfill(ctx context.Context, mw *worker.MirrorWorker, every time.Duration, logger *log.Logger) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := mw.Backfill(ctx)
			if err != nil {
				logger.Error("Periodic backfill failed", log.FieldError, err)
				continue
			}
			if n > 0 {
				logger.Info("Periodic backfill mirrored missed expenses", log.FieldCount, n)
			}
			verifyMirror(ctx, mw, logger)
		}
	}
}

// verifyMirror reads the mirror back after a backfill. Drift is logged by the
// worker; it never stops the process.
func verifyMirror(ctx context.Context, mw *worker.MirrorWorker, logger *log.Logger) {
	d, err := mw.Verify(ctx)
	if err != nil {
		logger.Warn("Mirror verification failed", log.FieldError, err)
		return
	}
	if d.Clean() {
		logger.Debug("Mirror verified", "rows", d.Mirrored)
	}
}
