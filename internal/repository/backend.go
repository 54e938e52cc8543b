package repository

import (
	"context"
	"fmt"
	"log/slog"

	"privydocs/internal/config"
	registryRepo "privydocs/internal/domain/repositories/registry"
	"privydocs/internal/repository/memory"
	"privydocs/internal/repository/postgres"
	postgresRegistry "privydocs/internal/repository/postgres/registry"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Backend is the persistence selected by configuration.
// Pool and Tables are nil for the in-memory journal.
type Backend struct {
	Journal registryRepo.Journal
	Pool    *pgxpool.Pool
	Tables  *postgres.TableNames
}

// Open connects the journal named by cfg. An empty DATABASE_URL selects the
// in-memory journal, whose contents are lost on restart.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory journal (state is lost on restart)")
		return &Backend{Journal: memory.NewJournal()}, nil
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("database connected",
		"max_conns", pool.Config().MaxConns,
		"table_prefix", cfg.TablePrefix,
	)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	txManager := postgres.NewTransactionManager(pool, logger)

	return &Backend{
		Journal: postgresRegistry.NewJournal(repoConfig, txManager),
		Pool:    pool,
		Tables:  tables,
	}, nil
}

// Close releases the connection pool, if any
func (b *Backend) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
}
