package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultAvatarURL  = "https://www.mediasfu.com/logo192.png"
	MaxDisplayNameLen = 64
)

type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Taken       bool   `json:"taken"`
}

// NewUserProfile builds a profile that is already held by the creating session.
func NewUserProfile(displayName, avatarURL string) (*UserProfile, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidInput)
	}
	if len([]rune(name)) > MaxDisplayNameLen {
		return nil, fmt.Errorf("%w: display name too long", ErrInvalidInput)
	}
	return &UserProfile{
		ID:          NewID(),
		DisplayName: name,
		AvatarURL:   AvatarOrDefault(avatarURL),
		Taken:       true,
	}, nil
}

func AvatarOrDefault(url string) string {
	if strings.TrimSpace(url) == "" {
		return DefaultAvatarURL
	}
	return url
}

// NewID returns an opaque unique identifier.
func NewID() string {
	return uuid.NewString()
}
