package view

import (
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/lifecycle"
)

// ExpiryWarning matches the "less than a minute left" notice of the clients.
const ExpiryWarning = time.Minute

// Summary is a space together with every derived value a front end renders,
// seen from the point of view of one user.
type Summary struct {
	Space         *domain.Space `json:"space"`
	Status        Status        `json:"status"`
	Counts        Counts        `json:"counts"`
	JoinStatus    JoinStatus    `json:"joinStatus,omitempty"`
	SpeakStatus   SpeakStatus   `json:"speakStatus,omitempty"`
	CanJoinNow    bool          `json:"canJoinNow"`
	CanSpeak      bool          `json:"canSpeak"`
	CanModerate   bool          `json:"canModerate"`
	RemainingMS   int64         `json:"remainingMs"`
	Progress      float64       `json:"progress"`
	ExpiresSoon   bool          `json:"expiresSoon"`
	ParticipantsN int           `json:"participantCount"`
}

func Summarize(sp *domain.Space, userID string, now time.Time) Summary {
	return Summary{
		Space:         sp,
		Status:        GetStatus(sp, now),
		Counts:        GetCounts(sp),
		JoinStatus:    GetJoinStatus(sp, userID),
		SpeakStatus:   GetSpeakStatus(sp, userID),
		CanJoinNow:    lifecycle.CanJoinNow(sp, now),
		CanSpeak:      CanSpeak(sp, userID),
		CanModerate:   CanModerate(sp, userID),
		RemainingMS:   lifecycle.RemainingTime(sp, now).Milliseconds(),
		Progress:      lifecycle.Progress(sp, now),
		ExpiresSoon:   lifecycle.ExpiresSoon(sp, now, ExpiryWarning),
		ParticipantsN: len(sp.Participants),
	}
}

func SummarizeAll(spaces []domain.Space, userID string, now time.Time) []Summary {
	out := make([]Summary, 0, len(spaces))
	for i := range spaces {
		out = append(out, Summarize(&spaces[i], userID, now))
	}
	return out
}
