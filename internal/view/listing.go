package view

import (
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/cwrk-planet/space-service/internal/domain"
)

const (
	RecentLimit = 5
	TopLimit    = 5
)

// Filter keeps spaces whose title or description contains query (case-insensitive)
// and whose status matches. An empty status means All.
func Filter(spaces []domain.Space, query string, status Status, now time.Time) []domain.Space {
	q := strings.ToLower(strings.TrimSpace(query))
	return lo.Filter(spaces, func(sp domain.Space, _ int) bool {
		if q != "" &&
			!strings.Contains(strings.ToLower(sp.Title), q) &&
			!strings.Contains(strings.ToLower(sp.Description), q) {
			return false
		}
		switch status {
		case StatusLive, StatusScheduled, StatusEnded:
			return GetStatus(&sp, now) == status
		default:
			return true
		}
	})
}

func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StatusAll, true
	case "live":
		return StatusLive, true
	case "scheduled":
		return StatusScheduled, true
	case "ended":
		return StatusEnded, true
	}
	return "", false
}

// Recent returns up to n spaces the user belongs to or was cleared to enter.
func Recent(spaces []domain.Space, userID string, n int) []domain.Space {
	if userID == "" {
		return []domain.Space{}
	}
	mine := lo.Filter(spaces, func(sp domain.Space, _ int) bool {
		return sp.IsParticipant(userID) || lo.Contains(sp.ApprovedToJoin, userID)
	})
	return first(mine, n)
}

// Top returns up to n spaces with the most participants.
func Top(spaces []domain.Space, n int) []domain.Space {
	sorted := append(make([]domain.Space, 0, len(spaces)), spaces...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Participants) > len(sorted[j].Participants)
	})
	return first(sorted, n)
}

// ActiveFor finds the running space the user currently participates in.
func ActiveFor(spaces []domain.Space, userID string) (*domain.Space, bool) {
	for i := range spaces {
		sp := &spaces[i]
		if sp.Active && sp.EndedAt == 0 && sp.IsParticipant(userID) {
			return sp, true
		}
	}
	return nil, false
}

func first(spaces []domain.Space, n int) []domain.Space {
	if n >= 0 && len(spaces) > n {
		return spaces[:n]
	}
	return spaces
}
