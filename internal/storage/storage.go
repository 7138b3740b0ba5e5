// Package storage defines how the whole users/spaces document is persisted.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cwrk-planet/space-service/internal/domain"
)

// ErrVersionConflict is returned by Save when the stored document moved on
// since the snapshot was loaded.
var ErrVersionConflict = errors.New("storage: version conflict")

// Gateway reads and writes the full snapshot. Save compares the snapshot's
// Version against the stored one and returns the stored result with the
// version incremented.
type Gateway interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) (domain.Snapshot, error)
}

// Empty is the document a fresh store starts from.
func Empty() domain.Snapshot {
	s := domain.Snapshot{}
	s.Normalize()
	return s
}

// Encode renders the snapshot the way db.json is laid out: two-space indent.
func Encode(snap domain.Snapshot) ([]byte, error) {
	snap.Normalize()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a stored document. An empty input yields Empty().
func Decode(data []byte) (domain.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Empty(), nil
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.Normalize()
	return snap, nil
}
