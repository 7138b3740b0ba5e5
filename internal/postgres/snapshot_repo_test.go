package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/storage"
)

// Runs against a real database only when SPACES_TEST_POSTGRES_DSN is set.
func TestSnapshotRepository(t *testing.T) {
	dsn := os.Getenv("SPACES_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SPACES_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	repo := NewSnapshotRepository(db.Pool)
	snap, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	stale := snap.Clone()

	snap.Users = append(snap.Users, domain.UserProfile{ID: domain.NewID(), DisplayName: "pg"})
	saved, err := repo.Save(ctx, snap)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Version != snap.Version+1 {
		t.Fatalf("version = %d, want %d", saved.Version, snap.Version+1)
	}
	if _, err := repo.Save(ctx, stale); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("stale save err = %v, want conflict", err)
	}
}
