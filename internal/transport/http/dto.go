package http

import (
	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/view"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateUserRequest struct {
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

type UsersResponse struct {
	Items []domain.UserProfile `json:"items"`
}

// CreateSpaceRequest takes startTime as epoch milliseconds and duration in
// milliseconds, like the stored document.
type CreateSpaceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
	AskToSpeak  bool   `json:"askToSpeak"`
	AskToJoin   bool   `json:"askToJoin"`
	StartTime   int64  `json:"startTime"`
	Duration    int64  `json:"duration"`
}

type SpacesListResponse struct {
	Items      []view.Summary `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type JoinRequest struct {
	AsSpeaker bool `json:"asSpeaker"`
}

type JoinResponse struct {
	Outcome string       `json:"outcome"`
	Space   view.Summary `json:"space"`
}

type MuteRequest struct {
	UserID string `json:"userId"`
	Muted  bool   `json:"muted"`
}

type ApproveRequest struct {
	AsSpeaker bool `json:"asSpeaker"`
}

// Document is the body of /api/read and /api/write.
type Document struct {
	Users  []domain.UserProfile `json:"users"`
	Spaces []domain.Space       `json:"spaces"`
}

type WriteResponse struct {
	Status  string               `json:"status"`
	Success bool                 `json:"success"`
	Users   []domain.UserProfile `json:"users"`
	Spaces  []domain.Space       `json:"spaces"`
}
