package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/storage"
)

// MaxConflictRetries bounds how often a command is replayed on fresh state
// after another writer bumped the stored version.
const MaxConflictRetries = 3

// Store serializes every read-modify-write against the gateway.
type Store struct {
	gw  storage.Gateway
	mu  sync.Mutex
	now func() time.Time
}

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(gw storage.Gateway, opts ...StoreOption) *Store {
	s := &Store{gw: gw, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Now() time.Time { return s.now() }

// Snapshot loads the current document for queries.
func (s *Store) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	snap, err := s.gw.Load(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Update runs fn on a fresh copy of the document and saves the result. When fn
// fails nothing is written and its error is returned unchanged. A version
// conflict reloads and replays fn.
func (s *Store) Update(ctx context.Context, fn func(*domain.Snapshot) error) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; ; attempt++ {
		snap, err := s.gw.Load(ctx)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
		}
		if err := fn(&snap); err != nil {
			return domain.Snapshot{}, err
		}
		saved, err := s.gw.Save(ctx, snap)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) || attempt >= MaxConflictRetries {
			return domain.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
		}
		slog.Warn("service.Store: version conflict, retrying", slog.Int("attempt", attempt+1))
	}
}
