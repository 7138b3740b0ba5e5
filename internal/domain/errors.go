package domain

import "errors"

// Every state-machine error guarantees that the space was left untouched.
var (
	ErrSpaceNotFound    = errors.New("space not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrNotParticipant   = errors.New("user is not a participant of the space")
	ErrAlreadyMember    = errors.New("user already joined the space")
	ErrAlreadyRequested = errors.New("request already pending")
	ErrBanned           = errors.New("user is banned from the space")
	ErrInvalidState     = errors.New("operation not allowed in current state")
	ErrSpaceEnded       = errors.New("space has ended")
	ErrSpaceFull        = errors.New("space is full")
	ErrInvalidInput     = errors.New("invalid input")
	ErrForbidden        = errors.New("forbidden")
)

// IsNoOp reports whether err only says the requested state is already in place.
func IsNoOp(err error) bool {
	return errors.Is(err, ErrAlreadyMember) || errors.Is(err, ErrAlreadyRequested)
}
