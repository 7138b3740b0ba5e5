package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/lifecycle"
	"github.com/cwrk-planet/space-service/internal/membership"
	"github.com/cwrk-planet/space-service/internal/view"
)

var errNothingToDo = errors.New("nothing to do")

type SpaceService struct {
	store           *Store
	pub             Publisher
	enforceCapacity bool
}

type SpaceOption func(*SpaceService)

func WithPublisher(p Publisher) SpaceOption {
	return func(s *SpaceService) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithEnforcedCapacity turns the space capacity into a hard limit on joins.
func WithEnforcedCapacity(on bool) SpaceOption {
	return func(s *SpaceService) { s.enforceCapacity = on }
}

func NewSpaceService(store *Store, opts ...SpaceOption) *SpaceService {
	s := &SpaceService{store: store, pub: nopPublisher{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateSpaceInput struct {
	Title       string
	Description string
	Capacity    int
	AskToSpeak  bool
	AskToJoin   bool
	StartTime   time.Time
	Duration    time.Duration
}

// CreateSpace opens a space hosted by hostID.
func (s *SpaceService) CreateSpace(ctx context.Context, hostID string, in CreateSpaceInput) (*domain.Space, error) {
	var created *domain.Space
	_, err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		host := snap.User(hostID)
		if host == nil {
			return domain.ErrUserNotFound
		}
		sp, err := lifecycle.Create(in.Title, in.Description, *host, lifecycle.Options{
			Capacity:   in.Capacity,
			AskToSpeak: in.AskToSpeak,
			AskToJoin:  in.AskToJoin,
			StartTime:  in.StartTime,
			Duration:   in.Duration,
		}, s.store.Now())
		if err != nil {
			return err
		}
		snap.Spaces = append(snap.Spaces, *sp)
		created = sp
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(Event{Type: EventSpaceUpdated, Space: created.Clone()})
	return created, nil
}

func (s *SpaceService) GetSpace(ctx context.Context, id string) (*domain.Space, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sp := snap.Space(id)
	if sp == nil {
		return nil, domain.ErrSpaceNotFound
	}
	return sp.Clone(), nil
}

// Summary renders one space for userID.
func (s *SpaceService) Summary(ctx context.Context, id, userID string) (view.Summary, error) {
	sp, err := s.GetSpace(ctx, id)
	if err != nil {
		return view.Summary{}, err
	}
	return view.Summarize(sp, userID, s.store.Now()), nil
}

type ListQuery struct {
	Query  string
	Status view.Status
	Limit  int
	Cursor string
}

// ListSpaces filters, then pages, the spaces and summarizes them for userID.
func (s *SpaceService) ListSpaces(ctx context.Context, userID string, q ListQuery) ([]view.Summary, string, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}
	now := s.store.Now()
	page, next, err := view.Page(view.Filter(snap.Spaces, q.Query, q.Status, now), q.Limit, q.Cursor)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return view.SummarizeAll(page, userID, now), next, nil
}

func (s *SpaceService) RecentSpaces(ctx context.Context, userID string) ([]view.Summary, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return view.SummarizeAll(view.Recent(snap.Spaces, userID, view.RecentLimit), userID, s.store.Now()), nil
}

func (s *SpaceService) TopSpaces(ctx context.Context, userID string) ([]view.Summary, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return view.SummarizeAll(view.Top(snap.Spaces, view.TopLimit), userID, s.store.Now()), nil
}

// ActiveSpace returns the live space userID is in, or ErrSpaceNotFound.
func (s *SpaceService) ActiveSpace(ctx context.Context, userID string) (view.Summary, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return view.Summary{}, err
	}
	sp, ok := view.ActiveFor(snap.Spaces, userID)
	if !ok {
		return view.Summary{}, domain.ErrSpaceNotFound
	}
	return view.Summarize(sp, userID, s.store.Now()), nil
}

// EndSpace is reserved for the host.
func (s *SpaceService) EndSpace(ctx context.Context, spaceID, actorID string) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, _ *domain.Snapshot, now time.Time) error {
		if !sp.IsHost(actorID) {
			return domain.ErrForbidden
		}
		lifecycle.End(sp, now)
		return nil
	})
}

// EndExpired ends every space whose duration ran out and returns them.
func (s *SpaceService) EndExpired(ctx context.Context) ([]domain.Space, error) {
	var ended []domain.Space
	_, err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		ended = ended[:0]
		now := s.store.Now()
		for i := range snap.Spaces {
			sp := &snap.Spaces[i]
			if sp.Active && lifecycle.IsExpired(sp, now) {
				lifecycle.End(sp, now)
				ended = append(ended, *sp.Clone())
			}
		}
		if len(ended) == 0 {
			return errNothingToDo
		}
		return nil
	})
	if errors.Is(err, errNothingToDo) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range ended {
		s.pub.Publish(Event{Type: EventSpaceEnded, Space: ended[i].Clone()})
	}
	return ended, nil
}

// JoinSpace lets userID in, queues them on a gated space, or reports a no-op.
func (s *SpaceService) JoinSpace(ctx context.Context, spaceID, userID string, asSpeaker bool) (membership.Outcome, *domain.Space, error) {
	var outcome membership.Outcome
	sp, err := s.mutate(ctx, spaceID, func(sp *domain.Space, snap *domain.Snapshot, _ time.Time) error {
		u := snap.User(userID)
		if u == nil {
			return domain.ErrUserNotFound
		}
		var err error
		outcome, err = membership.Join(sp, *u, membership.JoinOptions{
			AsSpeaker:       asSpeaker,
			EnforceCapacity: s.enforceCapacity,
		})
		return err
	})
	return outcome, sp, err
}

// InviteUser pre-clears userID so their next join skips the request queue.
func (s *SpaceService) InviteUser(ctx context.Context, spaceID, actorID, userID string) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, snap *domain.Snapshot, _ time.Time) error {
		if err := requireModerator(sp, actorID); err != nil {
			return err
		}
		u := snap.User(userID)
		if u == nil {
			return domain.ErrUserNotFound
		}
		_, err := membership.Join(sp, *u, membership.JoinOptions{Force: true})
		return err
	})
}

func (s *SpaceService) LeaveSpace(ctx context.Context, spaceID, userID string) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, _ *domain.Snapshot, now time.Time) error {
		return membership.Leave(sp, userID, now)
	})
}

// Mute is open to the host for anyone. Participants may mute themselves and
// unmute themselves only while they can broadcast.
func (s *SpaceService) Mute(ctx context.Context, spaceID, actorID, targetID string, muted bool) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, _ *domain.Snapshot, _ time.Time) error {
		if !view.CanModerate(sp, actorID) {
			if actorID != targetID {
				return domain.ErrForbidden
			}
			if !muted && !view.CanSpeak(sp, actorID) {
				return domain.ErrForbidden
			}
		}
		return membership.Mute(sp, targetID, muted)
	})
}

func (s *SpaceService) RequestToSpeak(ctx context.Context, spaceID, userID string) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, _ *domain.Snapshot, now time.Time) error {
		return membership.RequestToSpeak(sp, userID, now)
	})
}

func (s *SpaceService) ApproveSpeakRequest(ctx context.Context, spaceID, actorID, userID string, asSpeaker bool) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, _ *domain.Snapshot, _ time.Time) error {
		if err := requireModerator(sp, actorID); err != nil {
			return err
		}
		return membership.ApproveRequest(sp, userID, asSpeaker)
	})
}

func (s *SpaceService) RejectSpeakRequest(ctx context.Context, spaceID, actorID, userID string) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, _ *domain.Snapshot, _ time.Time) error {
		if err := requireModerator(sp, actorID); err != nil {
			return err
		}
		return membership.RejectRequest(sp, userID)
	})
}

func (s *SpaceService) GrantSpeakingRole(ctx context.Context, spaceID, actorID, userID string) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, _ *domain.Snapshot, _ time.Time) error {
		if err := requireModerator(sp, actorID); err != nil {
			return err
		}
		return membership.GrantSpeakingRole(sp, userID)
	})
}

func (s *SpaceService) ApproveJoinRequest(ctx context.Context, spaceID, actorID, userID string, asSpeaker bool) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, snap *domain.Snapshot, _ time.Time) error {
		if err := requireModerator(sp, actorID); err != nil {
			return err
		}
		u := snap.User(userID)
		if u == nil {
			return domain.ErrUserNotFound
		}
		return membership.ApproveJoinRequest(sp, *u, asSpeaker, membership.JoinOptions{
			EnforceCapacity: s.enforceCapacity,
		})
	})
}

func (s *SpaceService) RejectJoinRequest(ctx context.Context, spaceID, actorID, userID string) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, _ *domain.Snapshot, _ time.Time) error {
		if err := requireModerator(sp, actorID); err != nil {
			return err
		}
		return membership.RejectJoinRequest(sp, userID)
	})
}

func (s *SpaceService) Ban(ctx context.Context, spaceID, actorID, userID string) (*domain.Space, error) {
	return s.mutate(ctx, spaceID, func(sp *domain.Space, _ *domain.Snapshot, now time.Time) error {
		if err := requireModerator(sp, actorID); err != nil {
			return err
		}
		return membership.Ban(sp, userID, now)
	})
}

// mutate applies fn to one space inside a store update and publishes the
// saved space. Errors from fn leave the document untouched.
func (s *SpaceService) mutate(ctx context.Context, spaceID string, fn func(*domain.Space, *domain.Snapshot, time.Time) error) (*domain.Space, error) {
	var endedBefore bool
	saved, err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		sp := snap.Space(spaceID)
		if sp == nil {
			return domain.ErrSpaceNotFound
		}
		endedBefore = lifecycle.IsEnded(sp)
		return fn(sp, snap, s.store.Now())
	})
	if err != nil {
		return nil, err
	}

	sp := saved.Space(spaceID)
	if sp == nil {
		return nil, domain.ErrSpaceNotFound
	}
	ev := Event{Type: EventSpaceUpdated, Space: sp.Clone()}
	if !endedBefore && lifecycle.IsEnded(sp) {
		ev.Type = EventSpaceEnded
	}
	s.pub.Publish(ev)
	return sp.Clone(), nil
}

func requireModerator(sp *domain.Space, actorID string) error {
	if !view.CanModerate(sp, actorID) {
		return domain.ErrForbidden
	}
	return nil
}
