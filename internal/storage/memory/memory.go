// Package memory keeps the snapshot in process memory. Used by tests and
// by the "memory" storage driver.
package memory

import (
	"context"
	"sync"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/storage"
)

type Gateway struct {
	mu   sync.Mutex
	snap domain.Snapshot
}

func New() *Gateway {
	return &Gateway{snap: storage.Empty()}
}

// NewWith seeds the gateway with an existing document.
func NewWith(snap domain.Snapshot) *Gateway {
	snap = snap.Clone()
	snap.Normalize()
	return &Gateway{snap: snap}
}

func (g *Gateway) Load(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap.Clone(), nil
}

func (g *Gateway) Save(ctx context.Context, snap domain.Snapshot) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if snap.Version != g.snap.Version {
		return domain.Snapshot{}, storage.ErrVersionConflict
	}
	next := snap.Clone()
	next.Normalize()
	next.Version++
	g.snap = next
	return next.Clone(), nil
}
