package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/service"
	httpmw "github.com/cwrk-planet/space-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/space-service/internal/view"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	spaces *service.SpaceService
	users  *service.UserService
	docs   *service.DocumentService

	now func() time.Time
}

func NewHandler(spaces *service.SpaceService, users *service.UserService, docs *service.DocumentService) *Handler {
	return &Handler{
		spaces: spaces,
		users:  users,
		docs:   docs,
		now:    time.Now,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads an optional JSON body; an empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// --- document ---

// GET /api/read
func (h *Handler) ReadDocument(w http.ResponseWriter, r *http.Request) {
	snap, err := h.docs.Read(r.Context())
	if err != nil {
		writeError(w, "ReadDocument", err)
		return
	}
	writeJSON(w, http.StatusOK, Document{Users: snap.Users, Spaces: snap.Spaces})
}

// POST /api/write
func (h *Handler) WriteDocument(w http.ResponseWriter, r *http.Request) {
	var req Document
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("handler.WriteDocument.Decode:", slog.Any("err", err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	snap, err := h.docs.Write(r.Context(), req.Users, req.Spaces)
	if err != nil {
		writeError(w, "WriteDocument", err)
		return
	}
	writeJSON(w, http.StatusOK, WriteResponse{
		Status:  "success",
		Success: true,
		Users:   snap.Users,
		Spaces:  snap.Spaces,
	})
}

// --- users ---

// POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	u, err := h.users.CreateProfile(r.Context(), req.DisplayName, req.AvatarURL)
	if err != nil {
		writeError(w, "CreateUser", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GET /users/available
func (h *Handler) AvailableUsers(w http.ResponseWriter, r *http.Request) {
	items, err := h.users.AvailableUsers(r.Context())
	if err != nil {
		writeError(w, "AvailableUsers", err)
		return
	}
	writeJSON(w, http.StatusOK, UsersResponse{Items: items})
}

// GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "GetUser", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// POST /users/{id}/take
func (h *Handler) TakeUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.MarkTaken(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "TakeUser", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// POST /users/{id}/free
func (h *Handler) FreeUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.FreeUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "FreeUser", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// --- spaces: queries ---

// POST /spaces
func (h *Handler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var req CreateSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	in := service.CreateSpaceInput{
		Title:       req.Title,
		Description: req.Description,
		Capacity:    req.Capacity,
		AskToSpeak:  req.AskToSpeak,
		AskToJoin:   req.AskToJoin,
		Duration:    time.Duration(req.Duration) * time.Millisecond,
	}
	if req.StartTime > 0 {
		in.StartTime = time.UnixMilli(req.StartTime)
	}

	userID := httpmw.UserIDFromCtx(r.Context())
	sp, err := h.spaces.CreateSpace(r.Context(), userID, in)
	if err != nil {
		writeError(w, "CreateSpace", err)
		return
	}
	writeJSON(w, http.StatusCreated, view.Summarize(sp, userID, h.now()))
}

// GET /spaces?q=&status=&limit=&cursor=
func (h *Handler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, ok := view.ParseStatus(q.Get("status"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid status"})
		return
	}
	limit := view.DefaultPageLimit
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	items, next, err := h.spaces.ListSpaces(r.Context(), httpmw.UserIDFromCtx(r.Context()), service.ListQuery{
		Query:  q.Get("q"),
		Status: status,
		Limit:  limit,
		Cursor: q.Get("cursor"),
	})
	if err != nil {
		writeError(w, "ListSpaces", err)
		return
	}
	writeJSON(w, http.StatusOK, SpacesListResponse{Items: items, NextCursor: next})
}

// GET /spaces/recent
func (h *Handler) RecentSpaces(w http.ResponseWriter, r *http.Request) {
	items, err := h.spaces.RecentSpaces(r.Context(), httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, "RecentSpaces", err)
		return
	}
	writeJSON(w, http.StatusOK, SpacesListResponse{Items: items})
}

// GET /spaces/top
func (h *Handler) TopSpaces(w http.ResponseWriter, r *http.Request) {
	items, err := h.spaces.TopSpaces(r.Context(), httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, "TopSpaces", err)
		return
	}
	writeJSON(w, http.StatusOK, SpacesListResponse{Items: items})
}

// GET /spaces/active
func (h *Handler) ActiveSpace(w http.ResponseWriter, r *http.Request) {
	s, err := h.spaces.ActiveSpace(r.Context(), httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, "ActiveSpace", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GET /spaces/{id}
func (h *Handler) GetSpace(w http.ResponseWriter, r *http.Request) {
	s, err := h.spaces.Summary(r.Context(), chi.URLParam(r, "id"), httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, "GetSpace", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// --- spaces: commands ---

// POST /spaces/{id}/join
func (h *Handler) JoinSpace(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	spaceID, userID := chi.URLParam(r, "id"), httpmw.UserIDFromCtx(r.Context())

	outcome, sp, err := h.spaces.JoinSpace(r.Context(), spaceID, userID, req.AsSpeaker)
	if err != nil {
		if !domain.IsNoOp(err) {
			writeError(w, "JoinSpace", err)
			return
		}
		summary, err := h.spaces.Summary(r.Context(), spaceID, userID)
		if err != nil {
			writeError(w, "JoinSpace", err)
			return
		}
		writeJSON(w, http.StatusOK, JoinResponse{Outcome: "unchanged", Space: summary})
		return
	}
	writeJSON(w, http.StatusOK, JoinResponse{Outcome: string(outcome), Space: view.Summarize(sp, userID, h.now())})
}

// POST /spaces/{id}/leave
func (h *Handler) LeaveSpace(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "LeaveSpace", func(spaceID, userID string) (*domain.Space, error) {
		return h.spaces.LeaveSpace(r.Context(), spaceID, userID)
	})
}

// POST /spaces/{id}/end
func (h *Handler) EndSpace(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "EndSpace", func(spaceID, userID string) (*domain.Space, error) {
		return h.spaces.EndSpace(r.Context(), spaceID, userID)
	})
}

// POST /spaces/{id}/mute
func (h *Handler) Mute(w http.ResponseWriter, r *http.Request) {
	var req MuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	h.command(w, r, "Mute", func(spaceID, userID string) (*domain.Space, error) {
		target := req.UserID
		if target == "" {
			target = userID
		}
		return h.spaces.Mute(r.Context(), spaceID, userID, target, req.Muted)
	})
}

// POST /spaces/{id}/speak-requests
func (h *Handler) RequestToSpeak(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "RequestToSpeak", func(spaceID, userID string) (*domain.Space, error) {
		return h.spaces.RequestToSpeak(r.Context(), spaceID, userID)
	})
}

// POST /spaces/{id}/speak-requests/{userID}/approve
func (h *Handler) ApproveSpeakRequest(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	h.command(w, r, "ApproveSpeakRequest", func(spaceID, actorID string) (*domain.Space, error) {
		return h.spaces.ApproveSpeakRequest(r.Context(), spaceID, actorID, chi.URLParam(r, "userID"), req.AsSpeaker)
	})
}

// POST /spaces/{id}/speak-requests/{userID}/reject
func (h *Handler) RejectSpeakRequest(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "RejectSpeakRequest", func(spaceID, actorID string) (*domain.Space, error) {
		return h.spaces.RejectSpeakRequest(r.Context(), spaceID, actorID, chi.URLParam(r, "userID"))
	})
}

// POST /spaces/{id}/speakers/{userID}
func (h *Handler) GrantSpeakingRole(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "GrantSpeakingRole", func(spaceID, actorID string) (*domain.Space, error) {
		return h.spaces.GrantSpeakingRole(r.Context(), spaceID, actorID, chi.URLParam(r, "userID"))
	})
}

// POST /spaces/{id}/join-requests/{userID}/approve
func (h *Handler) ApproveJoinRequest(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	h.command(w, r, "ApproveJoinRequest", func(spaceID, actorID string) (*domain.Space, error) {
		return h.spaces.ApproveJoinRequest(r.Context(), spaceID, actorID, chi.URLParam(r, "userID"), req.AsSpeaker)
	})
}

// POST /spaces/{id}/join-requests/{userID}/reject
func (h *Handler) RejectJoinRequest(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "RejectJoinRequest", func(spaceID, actorID string) (*domain.Space, error) {
		return h.spaces.RejectJoinRequest(r.Context(), spaceID, actorID, chi.URLParam(r, "userID"))
	})
}

// POST /spaces/{id}/invites/{userID}
func (h *Handler) InviteUser(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "InviteUser", func(spaceID, actorID string) (*domain.Space, error) {
		return h.spaces.InviteUser(r.Context(), spaceID, actorID, chi.URLParam(r, "userID"))
	})
}

// POST /spaces/{id}/bans/{userID}
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "Ban", func(spaceID, actorID string) (*domain.Space, error) {
		return h.spaces.Ban(r.Context(), spaceID, actorID, chi.URLParam(r, "userID"))
	})
}

// command runs a space command for the caller and answers with the caller's
// summary. Idempotent no-ops answer 200 with the unchanged space.
func (h *Handler) command(w http.ResponseWriter, r *http.Request, op string, fn func(spaceID, userID string) (*domain.Space, error)) {
	spaceID, userID := chi.URLParam(r, "id"), httpmw.UserIDFromCtx(r.Context())

	sp, err := fn(spaceID, userID)
	if err != nil {
		if !domain.IsNoOp(err) {
			writeError(w, op, err)
			return
		}
		summary, err := h.spaces.Summary(r.Context(), spaceID, userID)
		if err != nil {
			writeError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
		return
	}
	writeJSON(w, http.StatusOK, view.Summarize(sp, userID, h.now()))
}
