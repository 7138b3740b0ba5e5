package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SnapshotRepository struct {
	db *pgxpool.Pool
}

func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Load(ctx context.Context) (domain.Snapshot, error) {
	var (
		version int64
		doc     []byte
	)
	query := `SELECT version, document FROM space_snapshot WHERE id = 1`
	if err := r.db.QueryRow(ctx, query).Scan(&version, &doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Empty(), nil
		}
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := storage.Decode(doc)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.Version = version
	return snap, nil
}

// Save writes the document only if nobody bumped the version in between.
func (r *SnapshotRepository) Save(ctx context.Context, snap domain.Snapshot) (domain.Snapshot, error) {
	next := snap.Clone()
	next.Version = 0
	doc, err := storage.Encode(next)
	if err != nil {
		return domain.Snapshot{}, err
	}

	query := `
		UPDATE space_snapshot
		SET document = $1, version = version + 1, updated_at = now()
		WHERE id = 1 AND version = $2
		RETURNING version`
	err = r.db.QueryRow(ctx, query, doc, snap.Version).Scan(&next.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, storage.ErrVersionConflict
		}
		return domain.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	next.Normalize()
	return next, nil
}
