package service

import (
	"context"

	"github.com/cwrk-planet/space-service/internal/domain"
)

// DocumentService serves clients that read and write the whole document at
// once. Writes replace everything (last write wins).
type DocumentService struct {
	store *Store
	pub   Publisher
}

func NewDocumentService(store *Store, pub Publisher) *DocumentService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &DocumentService{store: store, pub: pub}
}

func (s *DocumentService) Read(ctx context.Context) (domain.Snapshot, error) {
	return s.store.Snapshot(ctx)
}

func (s *DocumentService) Write(ctx context.Context, users []domain.UserProfile, spaces []domain.Space) (domain.Snapshot, error) {
	saved, err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		snap.Users = users
		snap.Spaces = spaces
		snap.Normalize()
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	for i := range saved.Spaces {
		s.pub.Publish(Event{Type: EventSpaceUpdated, Space: saved.Spaces[i].Clone()})
	}
	return saved, nil
}
