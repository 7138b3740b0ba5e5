package grpcx

import (
	"github.com/cwrk-planet/space-service/internal/view"
)

type CreateSpaceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
	AskToSpeak  bool   `json:"ask_to_speak"`
	AskToJoin   bool   `json:"ask_to_join"`
	StartTimeMs int64  `json:"start_time_ms"`
	DurationMs  int64  `json:"duration_ms"`
}

type SpaceRequest struct {
	SpaceID string `json:"space_id"`
}

type ListSpacesRequest struct {
	Query  string `json:"query"`
	Status string `json:"status"`
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor"`
}

type ListSpacesReply struct {
	Items      []view.Summary `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type JoinSpaceRequest struct {
	SpaceID   string `json:"space_id"`
	AsSpeaker bool   `json:"as_speaker"`
}

type JoinSpaceReply struct {
	Outcome string       `json:"outcome"`
	Space   view.Summary `json:"space"`
}

type MuteRequest struct {
	SpaceID string `json:"space_id"`
	UserID  string `json:"user_id"`
	Muted   bool   `json:"muted"`
}

// TargetRequest addresses another participant of a space.
type TargetRequest struct {
	SpaceID   string `json:"space_id"`
	UserID    string `json:"user_id"`
	AsSpeaker bool   `json:"as_speaker,omitempty"`
}

type CreateProfileRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type UserRequest struct {
	UserID string `json:"user_id"`
}
