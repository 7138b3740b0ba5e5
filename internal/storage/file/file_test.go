package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/storage"
)

func openTemp(t *testing.T) *Gateway {
	t.Helper()
	g, err := Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	g := openTemp(t)
	snap, err := g.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Users == nil || snap.Spaces == nil || snap.Version != 0 {
		t.Fatalf("snap = %+v", snap)
	}
}

func TestSaveWritesIndentedDocument(t *testing.T) {
	ctx := context.Background()
	g := openTemp(t)

	snap, _ := g.Load(ctx)
	snap.Users = append(snap.Users, domain.UserProfile{ID: "u1", DisplayName: "Ann"})
	saved, err := g.Save(ctx, snap)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Version != 1 {
		t.Fatalf("version = %d", saved.Version)
	}

	data, err := os.ReadFile(g.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"users\": [") {
		t.Fatalf("document is not two-space indented:\n%s", data)
	}

	reopened, _ := Open(g.Path())
	again, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(again.Users) != 1 || again.Version != 1 {
		t.Fatalf("reloaded = %+v", again)
	}
}

func TestSaveRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	g := openTemp(t)

	a, _ := g.Load(ctx)
	b, _ := g.Load(ctx)
	if _, err := g.Save(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := g.Save(ctx, b); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestSaveDetectsUnversionedExternalWrite(t *testing.T) {
	ctx := context.Background()
	g := openTemp(t)

	stale, err := g.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// a legacy writer leaves the version at zero, same as the fresh store
	legacy := `{"users":[{"id":"x","displayName":"External","taken":true}],"spaces":[]}`
	if err := os.WriteFile(g.Path(), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	stale.Users = append(stale.Users, domain.UserProfile{ID: "u1", DisplayName: "Ann"})
	if _, err := g.Save(ctx, stale); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	fresh, err := g.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(fresh.Users) != 1 || fresh.Users[0].ID != "x" || fresh.Version == stale.Version {
		t.Fatalf("reload after conflict = %+v", fresh)
	}
	fresh.Users = append(fresh.Users, domain.UserProfile{ID: "u1", DisplayName: "Ann"})
	saved, err := g.Save(ctx, fresh)
	if err != nil {
		t.Fatalf("save on fresh read: %v", err)
	}
	if len(saved.Users) != 2 || saved.Version != fresh.Version+1 {
		t.Fatalf("saved = %+v", saved)
	}

	// our own write is not mistaken for an external one
	again, _ := g.Load(ctx)
	if _, err := g.Save(ctx, again); err != nil {
		t.Fatalf("save after own write: %v", err)
	}
}

func TestLegacyDocumentLoads(t *testing.T) {
	g := openTemp(t)
	legacy := `{"users":[{"id":"u1","displayName":"Ann","taken":true}],"spaces":[{"id":"s1","title":"t","host":"u1","participants":[]}]}`
	if err := os.WriteFile(g.Path(), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	snap, err := g.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Spaces) != 1 || snap.Spaces[0].Speakers == nil {
		t.Fatalf("legacy document not normalized: %+v", snap.Spaces)
	}
}

func TestWatchPicksUpExternalWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := openTemp(t)

	if _, err := g.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := g.Watch(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}

	external := `{"users":[{"id":"x","displayName":"External"}],"spaces":[]}`
	if err := os.WriteFile(g.Path(), []byte(external), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := g.Load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(snap.Users) == 1 && snap.Users[0].ID == "x" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("external write was not observed")
}
