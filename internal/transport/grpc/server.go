package grpcx

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/service"
	"github.com/cwrk-planet/space-service/internal/view"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const mdUserID = "x-user-id"

type Server struct {
	spaces *service.SpaceService
	users  *service.UserService

	now func() time.Time
}

func NewServer(spaces *service.SpaceService, users *service.UserService) *Server {
	return &Server{spaces: spaces, users: users, now: time.Now}
}

func Register(grpcServer *grpc.Server, s *Server) {
	grpcServer.RegisterService(&ServiceDesc, s)
}

// -------- helpers --------

// callerID reads x-user-id; it is empty for anonymous calls.
func callerID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return first(md.Get(mdUserID))
}

func requireCaller(ctx context.Context) (string, error) {
	uid := callerID(ctx)
	if uid == "" {
		return "", status.Error(codes.Unauthenticated, "missing x-user-id")
	}
	return uid, nil
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrSpaceNotFound), errors.Is(err, domain.ErrUserNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, view.ErrInvalidCursor):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrBanned):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrSpaceFull),
		errors.Is(err, domain.ErrSpaceEnded),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrNotParticipant):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		slog.Error("grpc handler failed", slog.Any("err", err))
		return status.Error(codes.Internal, "service error")
	}
}

// reply renders the caller's view of sp. Idempotent no-ops reply with the
// current state.
func (s *Server) reply(ctx context.Context, spaceID, userID string, sp *domain.Space, err error) (*view.Summary, error) {
	if err != nil {
		if !domain.IsNoOp(err) {
			return nil, mapErr(err)
		}
		summary, err := s.spaces.Summary(ctx, spaceID, userID)
		if err != nil {
			return nil, mapErr(err)
		}
		return &summary, nil
	}
	summary := view.Summarize(sp, userID, s.now())
	return &summary, nil
}

// -------- spaces --------

func (s *Server) CreateSpace(ctx context.Context, req *CreateSpaceRequest) (*view.Summary, error) {
	uid, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	in := service.CreateSpaceInput{
		Title:       req.Title,
		Description: req.Description,
		Capacity:    req.Capacity,
		AskToSpeak:  req.AskToSpeak,
		AskToJoin:   req.AskToJoin,
		Duration:    time.Duration(req.DurationMs) * time.Millisecond,
	}
	if req.StartTimeMs > 0 {
		in.StartTime = time.UnixMilli(req.StartTimeMs)
	}
	sp, err := s.spaces.CreateSpace(ctx, uid, in)
	if err != nil {
		return nil, mapErr(err)
	}
	return s.reply(ctx, sp.ID, uid, sp, nil)
}

func (s *Server) GetSpace(ctx context.Context, req *SpaceRequest) (*view.Summary, error) {
	summary, err := s.spaces.Summary(ctx, req.SpaceID, callerID(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	return &summary, nil
}

func (s *Server) ListSpaces(ctx context.Context, req *ListSpacesRequest) (*ListSpacesReply, error) {
	st, ok := view.ParseStatus(req.Status)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid status")
	}
	items, next, err := s.spaces.ListSpaces(ctx, callerID(ctx), service.ListQuery{
		Query:  req.Query,
		Status: st,
		Limit:  req.Limit,
		Cursor: req.Cursor,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &ListSpacesReply{Items: items, NextCursor: next}, nil
}

func (s *Server) EndSpace(ctx context.Context, req *SpaceRequest) (*view.Summary, error) {
	uid, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	sp, err := s.spaces.EndSpace(ctx, req.SpaceID, uid)
	return s.reply(ctx, req.SpaceID, uid, sp, err)
}

func (s *Server) JoinSpace(ctx context.Context, req *JoinSpaceRequest) (*JoinSpaceReply, error) {
	uid, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	outcome, sp, err := s.spaces.JoinSpace(ctx, req.SpaceID, uid, req.AsSpeaker)
	if domain.IsNoOp(err) {
		outcome = "unchanged"
	}
	summary, err := s.reply(ctx, req.SpaceID, uid, sp, err)
	if err != nil {
		return nil, err
	}
	return &JoinSpaceReply{Outcome: string(outcome), Space: *summary}, nil
}

func (s *Server) LeaveSpace(ctx context.Context, req *SpaceRequest) (*view.Summary, error) {
	uid, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	sp, err := s.spaces.LeaveSpace(ctx, req.SpaceID, uid)
	return s.reply(ctx, req.SpaceID, uid, sp, err)
}

func (s *Server) MuteParticipant(ctx context.Context, req *MuteRequest) (*view.Summary, error) {
	uid, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	target := req.UserID
	if target == "" {
		target = uid
	}
	sp, err := s.spaces.Mute(ctx, req.SpaceID, uid, target, req.Muted)
	return s.reply(ctx, req.SpaceID, uid, sp, err)
}

func (s *Server) RequestToSpeak(ctx context.Context, req *SpaceRequest) (*view.Summary, error) {
	uid, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	sp, err := s.spaces.RequestToSpeak(ctx, req.SpaceID, uid)
	return s.reply(ctx, req.SpaceID, uid, sp, err)
}

func (s *Server) ApproveRequest(ctx context.Context, req *TargetRequest) (*view.Summary, error) {
	return s.moderate(ctx, req, func(uid string) (*domain.Space, error) {
		return s.spaces.ApproveSpeakRequest(ctx, req.SpaceID, uid, req.UserID, req.AsSpeaker)
	})
}

func (s *Server) RejectRequest(ctx context.Context, req *TargetRequest) (*view.Summary, error) {
	return s.moderate(ctx, req, func(uid string) (*domain.Space, error) {
		return s.spaces.RejectSpeakRequest(ctx, req.SpaceID, uid, req.UserID)
	})
}

func (s *Server) GrantSpeakingRole(ctx context.Context, req *TargetRequest) (*view.Summary, error) {
	return s.moderate(ctx, req, func(uid string) (*domain.Space, error) {
		return s.spaces.GrantSpeakingRole(ctx, req.SpaceID, uid, req.UserID)
	})
}

func (s *Server) ApproveJoinRequest(ctx context.Context, req *TargetRequest) (*view.Summary, error) {
	return s.moderate(ctx, req, func(uid string) (*domain.Space, error) {
		return s.spaces.ApproveJoinRequest(ctx, req.SpaceID, uid, req.UserID, req.AsSpeaker)
	})
}

func (s *Server) RejectJoinRequest(ctx context.Context, req *TargetRequest) (*view.Summary, error) {
	return s.moderate(ctx, req, func(uid string) (*domain.Space, error) {
		return s.spaces.RejectJoinRequest(ctx, req.SpaceID, uid, req.UserID)
	})
}

func (s *Server) InviteUser(ctx context.Context, req *TargetRequest) (*view.Summary, error) {
	return s.moderate(ctx, req, func(uid string) (*domain.Space, error) {
		return s.spaces.InviteUser(ctx, req.SpaceID, uid, req.UserID)
	})
}

func (s *Server) BanParticipant(ctx context.Context, req *TargetRequest) (*view.Summary, error) {
	return s.moderate(ctx, req, func(uid string) (*domain.Space, error) {
		return s.spaces.Ban(ctx, req.SpaceID, uid, req.UserID)
	})
}

func (s *Server) moderate(ctx context.Context, req *TargetRequest, fn func(uid string) (*domain.Space, error)) (*view.Summary, error) {
	uid, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	sp, err := fn(uid)
	return s.reply(ctx, req.SpaceID, uid, sp, err)
}

// -------- users --------

func (s *Server) CreateProfile(ctx context.Context, req *CreateProfileRequest) (*domain.UserProfile, error) {
	u, err := s.users.CreateProfile(ctx, req.DisplayName, req.AvatarURL)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *Server) MarkUserTaken(ctx context.Context, req *UserRequest) (*domain.UserProfile, error) {
	u, err := s.users.MarkTaken(ctx, req.UserID)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *Server) FreeUser(ctx context.Context, req *UserRequest) (*domain.UserProfile, error) {
	u, err := s.users.FreeUser(ctx, req.UserID)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}
