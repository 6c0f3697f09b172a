package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/services"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	repo := cli.InitSQLite(ctx, logger, cfg.SQLiteDBPath)
	defer repo.Close()

	opts := []services.Option{services.WithLogger(logger)}
	if cfg.MirrorEnabled() {
		// The mirror is optional: without a broker expenses are still stored.
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, expenses will not be mirrored",
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			defer client.Close()
			opts = append(opts, services.WithPublisher(client))
			logger.Info("Publishing expense events", "exchange", cfg.AMQPExchange)
		}
	}
	svc := services.NewExpenseService(repo, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, svc, repo,
		apphttp.WithLogger(logger),
		apphttp.WithDemoBatchSize(cfg.DemoBatchSize),
		apphttp.WithRateLimit(ratelimit.Config{Requests: cfg.RateLimitRequests, Window: cfg.RateLimitWindow}),
		apphttp.WithSettingsInfo(cfg.SQLiteDBPath, cfg.MirrorEnabled()),
	)

	logger.Info("Starting expensetracker",
		"port", cfg.Port,
		"db_path", cfg.SQLiteDBPath,
		"mirror", cfg.MirrorEnabled(),
		log.FieldOperation, log.OpStartup)

	return cli.Run(ctx, logger, cfg.ShutdownTimeout, cli.Service{
		Name: "http",
		Run: func(ctx context.Context) error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		Shutdown: srv.Shutdown,
	})
}
