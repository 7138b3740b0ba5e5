package service

import (
	"context"

	"github.com/samber/lo"

	"github.com/cwrk-planet/space-service/internal/domain"
)

type UserService struct {
	store *Store
}

func NewUserService(store *Store) *UserService {
	return &UserService{store: store}
}

// CreateProfile registers a new profile, already taken by the calling session.
func (s *UserService) CreateProfile(ctx context.Context, displayName, avatarURL string) (*domain.UserProfile, error) {
	u, err := domain.NewUserProfile(displayName, avatarURL)
	if err != nil {
		return nil, err
	}
	_, err = s.store.Update(ctx, func(snap *domain.Snapshot) error {
		snap.Users = append(snap.Users, *u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	u := snap.User(id)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// AvailableUsers lists the profiles nobody has claimed.
func (s *UserService) AvailableUsers(ctx context.Context) ([]domain.UserProfile, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(snap.Users, func(u domain.UserProfile, _ int) bool { return !u.Taken }), nil
}

func (s *UserService) MarkTaken(ctx context.Context, id string) (*domain.UserProfile, error) {
	return s.setTaken(ctx, id, true)
}

func (s *UserService) FreeUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	return s.setTaken(ctx, id, false)
}

func (s *UserService) setTaken(ctx context.Context, id string, taken bool) (*domain.UserProfile, error) {
	var out domain.UserProfile
	_, err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		u := snap.User(id)
		if u == nil {
			return domain.ErrUserNotFound
		}
		u.Taken = taken
		out = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
