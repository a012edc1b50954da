package core

import (
	"context"
	"fmt"
	"io"

	"registrar/internal/infra/persistence/memory"
	"registrar/internal/infra/persistence/postgres"
	"registrar/internal/infra/persistence/sqlite"
	"registrar/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterises a backend.
type StorageConfig struct {
	Driver       StorageDriver
	SQLitePath   string
	PostgresDSN  string
	DeletePolicy domain.DeletePolicy
}

// OpenPersistentStore opens the configured backend. An empty driver means
// memory. Stores holding external resources implement io.Closer; see CloseStore.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *RulesEngine) (PersistentStore, error) {
	opts := []memory.Option{memory.WithDeletePolicy(cfg.DeletePolicy)}
	switch cfg.Driver {
	case "", StorageMemory:
		return memory.NewStore(engine, opts...), nil
	case StorageSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath, engine, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN, engine, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// CloseStore releases store resources when the backend holds any.
func CloseStore(store PersistentStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
