package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledger/internal/adapters"
	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/ports"
	"ledger/internal/services"
	"ledger/internal/sheets/memory"
	"ledger/internal/storage"
)

// store is what every storage backend provides before services are layered on.
type store interface {
	ports.ExpenseWriter
	ports.TaxonomyReader
	adapters.ReadStore
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger   *slog.Logger
	recorder services.Recorder
}

// NewFactory creates a backend factory. recorder may be nil.
func NewFactory(logger *slog.Logger, recorder services.Recorder) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:   logger,
		recorder: recorder,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		st      store
		closers []func() error
	)

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		st = repo
		closers = append(closers, repo.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "component", "backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		st = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend", "component", "backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	taxonomyCache := cache.NewLRUCache[[]string](1, config.CacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(taxonomyCache)
	cacheManager.StartCleanup(config.CacheTTL)
	closers = append(closers, func() error { cacheManager.Stop(); return nil })

	taxonomy := services.NewTaxonomyService(st, config.CategoriesFile, taxonomyCache, f.logger)

	opts := []services.Option{
		services.WithInvalidator(taxonomy),
		services.WithLogger(f.logger),
	}
	if f.recorder != nil {
		opts = append(opts, services.WithRecorder(f.recorder))
	}

	eventsEnabled := false
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
				"component", "backend", "error", err)
		} else {
			eventsEnabled = true
			opts = append(opts, services.WithPublisher(client))
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"component", "backend",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	service := services.NewExpenseService(st, opts...)

	return &BackendResult{
		Backend:       adapters.NewLedgerAdapter(st, service, taxonomy),
		Cleanup:       cleanupAll(closers),
		EventsEnabled: eventsEnabled,
	}, nil
}

// cleanupAll runs closers in reverse order of acquisition.
func cleanupAll(closers []func() error) CleanupFunc {
	return func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
