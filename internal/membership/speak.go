package membership

import (
	"time"

	"github.com/samber/lo"

	"github.com/cwrk-planet/space-service/internal/domain"
)

// RequestToSpeak moves a listener into the speak queue. Earlier rejections do not block it.
func RequestToSpeak(sp *domain.Space, userID string, now time.Time) error {
	if !sp.AskToSpeak {
		return domain.ErrInvalidState
	}
	p := sp.Participant(userID)
	if p == nil {
		return domain.ErrNotParticipant
	}
	if lo.Contains(sp.AskToSpeakQueue, userID) {
		return domain.ErrAlreadyRequested
	}
	if p.Role != domain.RoleListener {
		return domain.ErrInvalidState
	}

	p.Role = domain.RoleRequested
	sp.Listeners = lo.Without(sp.Listeners, userID)
	sp.AskToSpeakQueue = append(sp.AskToSpeakQueue, userID)
	sp.AskToSpeakHistory = append(sp.AskToSpeakHistory, userID)
	if sp.AskToSpeakTimestamps == nil {
		sp.AskToSpeakTimestamps = map[string]int64{}
	}
	sp.AskToSpeakTimestamps[userID] = now.UnixMilli()
	return nil
}

func ApproveRequest(sp *domain.Space, userID string, asSpeaker bool) error {
	p := sp.Participant(userID)
	if p == nil {
		return domain.ErrNotParticipant
	}
	if p.Role != domain.RoleRequested {
		return domain.ErrInvalidState
	}

	p.Muted = asSpeaker
	if asSpeaker {
		p.Role = domain.RoleSpeaker
		sp.Speakers = addUnique(sp.Speakers, userID)
		sp.Listeners = lo.Without(sp.Listeners, userID)
	} else {
		p.Role = domain.RoleListener
		sp.Listeners = addUnique(sp.Listeners, userID)
	}
	sp.AskToSpeakQueue = lo.Without(sp.AskToSpeakQueue, userID)
	return nil
}

// RejectRequest sends the participant back to the listeners. It is accepted
// for any non-host participant, so it doubles as a demotion of a speaker.
func RejectRequest(sp *domain.Space, userID string) error {
	p := sp.Participant(userID)
	if p == nil {
		return domain.ErrNotParticipant
	}
	if p.Role == domain.RoleHost {
		return domain.ErrInvalidState
	}

	sp.AskToSpeakQueue = lo.Without(sp.AskToSpeakQueue, userID)
	sp.AskToSpeakHistory = append(sp.AskToSpeakHistory, userID)
	p.Role = domain.RoleListener
	sp.Speakers = lo.Without(sp.Speakers, userID)
	sp.Listeners = addUnique(sp.Listeners, userID)
	sp.RejectedSpeakers = append(sp.RejectedSpeakers, userID)
	return nil
}

// GrantSpeakingRole promotes a participant without a prior request.
func GrantSpeakingRole(sp *domain.Space, userID string) error {
	p := sp.Participant(userID)
	if p == nil {
		return domain.ErrNotParticipant
	}
	if p.Role == domain.RoleHost || p.Role == domain.RoleSpeaker {
		return domain.ErrInvalidState
	}

	sp.Listeners = lo.Without(sp.Listeners, userID)
	p.Role = domain.RoleSpeaker
	p.Muted = true
	sp.Speakers = addUnique(sp.Speakers, userID)
	sp.AskToSpeakQueue = lo.Without(sp.AskToSpeakQueue, userID)
	return nil
}
