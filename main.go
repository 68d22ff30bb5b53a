package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"simple-banking/cache"
	"simple-banking/config"
	"simple-banking/handler"
	"simple-banking/ledger"
	"simple-banking/logging"
	"simple-banking/redact"
	"simple-banking/storage"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "simple-banking: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, foundEnvFile, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, _, err := logging.New(logging.Config{
		Environment: logging.Environment(cfg.Environment),
		Level:       cfg.LogLevel,
	})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	if !foundEnvFile {
		logger.Debug("no .env file found, relying on environment variables")
	}

	var redactor ledger.Redactor = redact.Masker{}
	if cfg.LogRedactionKey != "" {
		sealer, err := redact.NewSealerFromHex(cfg.LogRedactionKey)
		if err != nil {
			return fmt.Errorf("LOG_REDACTION_KEY: %w", err)
		}
		redactor = sealer
	}

	var repo ledger.Repository
	if cfg.DatabaseURL != "" {
		store, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer store.Close()
		repo = store
		logger.Info("database connection established and schema initialized")
	} else {
		repo = storage.NewMemoryStore()
		logger.Warn("DATABASE_URL is not set, accounts are kept in memory and lost on restart")
	}

	opts := []ledger.Option{
		ledger.WithLogger(logger.Named("ledger")),
		ledger.WithRedactor(redactor),
		ledger.WithConflictRetries(cfg.ConflictRetries),
	}
	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		lockOpts := cache.DefaultLockOptions()
		lockOpts.Expiry = cfg.LockExpiry
		lockOpts.Tries = cfg.LockTries
		locker, err := cache.NewLocker(client, lockOpts, logger.Named("lock"))
		if err != nil {
			return err
		}

		opts = append(opts,
			ledger.WithCache(cache.NewAccountCache(client, cfg.CacheTTL)),
			ledger.WithLocker(locker),
		)
		logger.Info("redis account cache and distributed locks enabled")
	}

	registry, err := ledger.NewRegistry(ledger.DefaultStrategies(ledger.NewCheckNumbers())...)
	if err != nil {
		return err
	}
	service := ledger.NewService(repo, registry, opts...)

	// Initialize handlers
	messages := handler.NewMessages()
	httpLogger := logger.Named("http")
	router := handler.NewRouter(
		handler.NewAccountHandler(service, messages, httpLogger),
		handler.NewTransactionHandler(service, messages, httpLogger),
		httpLogger,
	)

	// Create and start server
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr), zap.Strings("transaction_types", kindNames(registry)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("server gracefully stopped")
	return nil
}

func kindNames(r *ledger.Registry) []string {
	kinds := r.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
