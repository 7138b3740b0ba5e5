// Package file stores the snapshot in a db.json compatible JSON file.
package file

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/storage"
)

// Gateway versions the document itself rather than trusting the version
// field on disk: legacy writers rewrite db.json without touching it. Every
// read hashes the raw bytes and bumps the local version when they differ from
// the last document this gateway read or wrote, so a save based on an older
// read fails with ErrVersionConflict.
type Gateway struct {
	path string

	mu      sync.Mutex
	cache   *domain.Snapshot
	version int64
	known   [sha256.Size]byte
	seen    bool

	watcher *fsnotify.Watcher
	closed  chan struct{}
}

// Open prepares the gateway; the file is created on the first save.
func Open(path string) (*Gateway, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Gateway{path: path, closed: make(chan struct{})}, nil
}

func (g *Gateway) Path() string { return g.path }

func (g *Gateway) Load(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	snap, err := g.current()
	if err != nil {
		return domain.Snapshot{}, err
	}
	return snap.Clone(), nil
}

func (g *Gateway) Save(ctx context.Context, snap domain.Snapshot) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	// always check the disk; the cache misses writes made without a watcher
	cur, err := g.read()
	if err != nil {
		return domain.Snapshot{}, err
	}
	if cur.Version != snap.Version {
		return domain.Snapshot{}, storage.ErrVersionConflict
	}

	next := snap.Clone()
	next.Version = g.version + 1
	data, err := storage.Encode(next)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := writeAtomic(g.path, data); err != nil {
		return domain.Snapshot{}, err
	}
	next.Normalize()
	g.version = next.Version
	g.known = sha256.Sum256(data)
	g.seen = true
	g.cache = &next
	return next.Clone(), nil
}

// current returns the cached document, reading the file when the cache was
// invalidated. Callers hold g.mu.
func (g *Gateway) current() (domain.Snapshot, error) {
	if g.cache != nil {
		return *g.cache, nil
	}
	return g.read()
}

// read loads the file and refreshes the cache. Callers hold g.mu.
func (g *Gateway) read() (domain.Snapshot, error) {
	data, err := os.ReadFile(g.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.Snapshot{}, fmt.Errorf("read %s: %w", g.path, err)
	}
	snap, err := storage.Decode(data)
	if err != nil {
		return domain.Snapshot{}, err
	}

	sum := sha256.Sum256(data)
	switch {
	case !g.seen:
		g.version = snap.Version
	case sum != g.known:
		g.version = max(snap.Version, g.version+1)
	}
	g.known = sum
	g.seen = true

	snap.Version = g.version
	g.cache = &snap
	return snap, nil
}

func (g *Gateway) invalidate() {
	g.mu.Lock()
	g.cache = nil
	g.mu.Unlock()
}

// Watch drops the cache whenever the file changes on disk so edits made by
// other processes are picked up by the next Load. It returns once the watcher
// is running; the loop stops with ctx or Close.
func (g *Gateway) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	// atomic renames replace the inode, so watch the directory
	if err := watcher.Add(filepath.Dir(g.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(g.path), err)
	}
	g.watcher = watcher
	go g.watchLoop(ctx)
	return nil
}

func (g *Gateway) watchLoop(ctx context.Context) {
	name := filepath.Base(g.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.closed:
			return
		case event, ok := <-g.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				g.invalidate()
				slog.Debug("storage.file: change detected", slog.String("op", event.Op.String()))
			}
		case err, ok := <-g.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("storage.file: watcher error", slog.Any("err", err))
		}
	}
}

func (g *Gateway) Close() error {
	select {
	case <-g.closed:
		return nil
	default:
		close(g.closed)
	}
	if g.watcher != nil {
		return g.watcher.Close()
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
