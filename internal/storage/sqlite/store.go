// Package sqlite keeps the snapshot as a single versioned row in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/storage"
)

//go:embed schema.sql
var schema string

type Store struct {
	sqlDB *sql.DB
}

// Open opens the database file, creating the schema and the empty document on first use.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrate(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	empty, err := storage.Encode(storage.Empty())
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT OR IGNORE INTO space_snapshot (id, version, document, updated_at) VALUES (1, 0, ?, ?)`,
		string(empty), time.Now().UTC().UnixMilli(),
	)
	return err
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	var (
		version int64
		doc     string
	)
	err := s.sqlDB.QueryRowContext(ctx, `SELECT version, document FROM space_snapshot WHERE id = 1`).
		Scan(&version, &doc)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := storage.Decode([]byte(doc))
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.Version = version
	return snap, nil
}

func (s *Store) Save(ctx context.Context, snap domain.Snapshot) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	next := snap.Clone()
	next.Version = snap.Version + 1
	doc, err := storage.Encode(next)
	if err != nil {
		return domain.Snapshot{}, err
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE space_snapshot SET version = ?, document = ?, updated_at = ? WHERE id = 1 AND version = ?`,
		next.Version, string(doc), time.Now().UTC().UnixMilli(), snap.Version,
	)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	if n == 0 {
		return domain.Snapshot{}, storage.ErrVersionConflict
	}
	next.Normalize()
	return next, nil
}
