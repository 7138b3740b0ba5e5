// Package lifecycle creates spaces and answers timing questions about them.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"
)

// JoinWindow is how long before a scheduled start users may already enter.
const JoinWindow = 5 * time.Minute

type Options struct {
	Capacity   int
	AskToSpeak bool
	AskToJoin  bool
	StartTime  time.Time     // zero = now
	Duration   time.Duration // zero = domain.DefaultDuration
}

// Create builds a new active space with host as its only participant.
func Create(title, description string, host domain.UserProfile, opts Options, now time.Time) (*domain.Space, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if host.ID == "" {
		return nil, fmt.Errorf("%w: host is required", domain.ErrInvalidInput)
	}
	if opts.Capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must not be negative", domain.ErrInvalidInput)
	}
	if opts.Duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", domain.ErrInvalidInput)
	}

	capacity := opts.Capacity
	if capacity == 0 {
		capacity = domain.DefaultCapacity
	}
	duration := opts.Duration
	if duration == 0 {
		duration = domain.DefaultDuration
	}
	start := opts.StartTime
	if start.IsZero() {
		start = now
	}

	sp := &domain.Space{
		ID:           domain.NewID(),
		Title:        title,
		Description:  strings.TrimSpace(description),
		RemoteName:   "remote_" + domain.NewID()[:8],
		Participants: []domain.Participant{domain.NewParticipant(host, domain.RoleHost, false)},
		Host:         host.ID,
		StartedAt:    start.UnixMilli(),
		Duration:     duration.Milliseconds(),
		Active:       true,
		Capacity:     capacity,
		AskToJoin:    opts.AskToJoin,
		AskToSpeak:   opts.AskToSpeak,
	}
	sp.Normalize()
	return sp, nil
}

// End moves the space into its terminal state. A second call keeps the original end time.
func End(sp *domain.Space, now time.Time) {
	if IsEnded(sp) {
		return
	}
	sp.Active = false
	sp.EndedAt = now.UnixMilli()
}

func IsEnded(sp *domain.Space) bool {
	return sp.EndedAt != 0 && !sp.Active
}

func IsScheduled(sp *domain.Space, now time.Time) bool {
	return now.UnixMilli() < sp.StartedAt
}

func IsLive(sp *domain.Space, now time.Time) bool {
	return sp.Active && !IsEnded(sp) && !IsScheduled(sp, now)
}

func CanJoinNow(sp *domain.Space, now time.Time) bool {
	return sp.StartedAt-now.UnixMilli() <= JoinWindow.Milliseconds() && sp.Active && !IsEnded(sp)
}

func RemainingTime(sp *domain.Space, now time.Time) time.Duration {
	return time.Duration(sp.StartedAt+sp.Duration-now.UnixMilli()) * time.Millisecond
}

// Progress is the elapsed share of the duration in percent, clamped to [0, 100].
func Progress(sp *domain.Space, now time.Time) float64 {
	total := sp.Duration
	if total <= 0 {
		total = 1
	}
	remaining := float64(sp.StartedAt + sp.Duration - now.UnixMilli())
	p := (1 - remaining/float64(total)) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// IsExpired reports a space whose duration elapsed but which has not been ended yet.
func IsExpired(sp *domain.Space, now time.Time) bool {
	return !IsEnded(sp) && RemainingTime(sp, now) < 0
}

func ExpiresSoon(sp *domain.Space, now time.Time, threshold time.Duration) bool {
	rem := RemainingTime(sp, now)
	return !IsEnded(sp) && rem >= 0 && rem < threshold
}
