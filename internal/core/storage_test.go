package core

import (
	"context"
	"path/filepath"
	"testing"

	"registrar/internal/infra/persistence/memory"
	"registrar/internal/infra/persistence/sqlite"
	"registrar/pkg/domain"
)

func TestOpenPersistentStoreMemoryDefault(t *testing.T) {
	store, err := OpenPersistentStore(context.Background(), StorageConfig{DeletePolicy: domain.DeleteRestrict}, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if store.DeletePolicy() != domain.DeleteRestrict {
		t.Fatalf("expected restrict policy, got %s", store.DeletePolicy())
	}
	if err := CloseStore(store); err != nil {
		t.Fatalf("close memory store: %v", err)
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registrar.db")
	store, err := OpenPersistentStore(context.Background(), StorageConfig{Driver: StorageSQLite, SQLitePath: path}, NewDefaultRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer func() { _ = CloseStore(store) }()
	if s, ok := store.(*sqlite.Store); !ok || s.Path() != path {
		t.Fatalf("expected sqlite store at %s, got %T", path, store)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	if _, err := OpenPersistentStore(context.Background(), StorageConfig{Driver: "etcd"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
