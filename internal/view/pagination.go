package view

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/cwrk-planet/space-service/internal/domain"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 50
)

var ErrInvalidCursor = errors.New("invalid cursor")

type Cursor struct {
	StartedAt int64  `json:"started_at"`
	ID        string `json:"id"`
}

func EncodeCursor(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrInvalidCursor, err)
	}
	return &c, nil
}

// Page orders spaces by (startedAt, id) descending and returns the items after cursor.
func Page(spaces []domain.Space, limit int, cursor string) ([]domain.Space, string, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	cur, err := DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	sorted := append(make([]domain.Space, 0, len(spaces)), spaces...)
	sort.Slice(sorted, func(i, j int) bool {
		return newer(sorted[i].StartedAt, sorted[i].ID, sorted[j].StartedAt, sorted[j].ID)
	})

	// one extra item tells whether another page exists
	out := make([]domain.Space, 0, limit+1)
	for _, sp := range sorted {
		if cur != nil && !newer(cur.StartedAt, cur.ID, sp.StartedAt, sp.ID) {
			continue
		}
		out = append(out, sp)
		if len(out) > limit {
			break
		}
	}

	var next string
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		if c, e := EncodeCursor(Cursor{StartedAt: last.StartedAt, ID: last.ID}); e == nil {
			next = c
		}
	}
	return out, next, nil
}

// newer orders by (startedAt, id) descending.
func newer(aStart int64, aID string, bStart int64, bID string) bool {
	if aStart != bStart {
		return aStart > bStart
	}
	return aID > bID
}
