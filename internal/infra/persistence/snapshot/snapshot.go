// Package snapshot stores memory.Snapshot buckets in a SQL table, one row per
// bucket. The sqlite and postgres stores share it and differ only in Dialect.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"

	"registrar/internal/infra/persistence/memory"
	"registrar/pkg/domain"
)

// Table holds one JSON payload per bucket.
const Table = "registrar_state"

// Dialect captures the SQL differences between backends.
type Dialect struct {
	Name        string
	PayloadType string
	Placeholder func(n int) string
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		PayloadType: "BLOB",
		Placeholder: func(int) string { return "?" },
	}
	Postgres = Dialect{
		Name:        "postgres",
		PayloadType: "JSONB",
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}
)

func (d Dialect) createTable() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		bucket TEXT PRIMARY KEY,
		payload %s NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, Table, d.PayloadType)
}

func (d Dialect) upsert() string {
	return fmt.Sprintf(`INSERT INTO %s(bucket, payload, updated_at) VALUES(%s, %s, CURRENT_TIMESTAMP)
		ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		Table, d.Placeholder(1), d.Placeholder(2))
}

// EnsureTable creates the state table when it does not exist.
func EnsureTable(ctx context.Context, db *sql.DB, d Dialect) error {
	if _, err := db.ExecContext(ctx, d.createTable()); err != nil {
		return fmt.Errorf("ensure %s table: %w", Table, err)
	}
	return nil
}

// Load reads every stored bucket. found is false for an empty table.
func Load(ctx context.Context, db *sql.DB) (snap memory.Snapshot, found bool, err error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM `+Table)
	if err != nil {
		return memory.Snapshot{}, false, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, false, fmt.Errorf("scan state: %w", err)
		}
		if err := snap.DecodeBucket(bucket, payload); err != nil {
			return memory.Snapshot{}, false, err
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, false, fmt.Errorf("iterate state: %w", err)
	}
	return snap, found, nil
}

// Save upserts the named buckets of snap in one SQL transaction. Nothing is
// written when buckets is empty.
func Save(ctx context.Context, db *sql.DB, d Dialect, snap memory.Snapshot, buckets []string) (retErr error) {
	if len(buckets) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	stmt := d.upsert()
	for _, bucket := range buckets {
		data, err := snap.EncodeBucket(bucket)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// TouchedBuckets maps recorded changes onto the buckets they dirty, in
// memory.Buckets order. Creates also dirty the identity sequences.
func TouchedBuckets(changes []domain.Change) []string {
	touched := make(map[string]bool, len(memory.Buckets))
	for _, c := range changes {
		switch c.Entity {
		case domain.EntityStudent:
			touched["students"] = true
		case domain.EntityCourse:
			touched["courses"] = true
		case domain.EntityEnrollment:
			touched["enrollments"] = true
		}
		if c.Action == domain.ActionCreate {
			touched["sequences"] = true
		}
	}
	return slices.DeleteFunc(slices.Clone(memory.Buckets), func(b string) bool { return !touched[b] })
}
