// Package cli provides common initialization utilities shared by
// cmd/expensetracker, cmd/expense-worker and cmd/expensectl.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// SetupLogger loads .env, then builds the process logger from LOG_LEVEL and
// installs it as the default.
func SetupLogger(component string) *log.Logger {
	config.LoadEnvFile()
	return log.Setup(os.Getenv("LOG_LEVEL")).WithComponent(component)
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the database at dbPath and applies migrations.
// Returns the repository or exits the process on failure.
func InitSQLite(ctx context.Context, logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(ctx, dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeDatabase,
			"path", dbPath)
		os.Exit(1)
	}
	return repo
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Service is a long-running component of a process.
type Service struct {
	Name string
	// Run blocks until ctx is cancelled or the service fails.
	Run func(ctx context.Context) error
	// Shutdown, if set, is called once ctx is cancelled and is bounded by the
	// shutdown timeout.
	Shutdown func(ctx context.Context) error
}

// Run starts every service under one errgroup. The first failure or a shutdown
// signal on ctx cancels the rest; shutdown hooks get timeout to finish.
func Run(ctx context.Context, logger *log.Logger, timeout time.Duration, services ...Service) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, svc := range services {
		g.Go(func() error {
			err := svc.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Service failed", "service", svc.Name, log.FieldError, err)
				return err
			}
			return nil
		})

		if svc.Shutdown == nil {
			continue
		}
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Shutting down", "service", svc.Name, log.FieldOperation, log.OpShutdown)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := svc.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Shutdown error", "service", svc.Name, log.FieldError, err)
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
	}
	return err
}
