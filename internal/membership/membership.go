// Package membership implements the per-space role and request-queue state machine.
//
// Every function mutates the given space only when it returns a nil error, so a
// caller that ignores the error sees the operation as a no-op.
package membership

import (
	"time"

	"github.com/samber/lo"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/lifecycle"
)

// Outcome tells how a successful Join changed the space.
type Outcome string

const (
	Joined      Outcome = "joined"       // participant created
	Queued      Outcome = "queued"       // waiting in askToJoinQueue
	PreApproved Outcome = "pre_approved" // cleared to enter on the next join
)

type JoinOptions struct {
	AsSpeaker bool
	// Force clears the user into approvedToJoin without admitting them.
	Force bool
	// EnforceCapacity turns the advisory capacity into a hard limit.
	EnforceCapacity bool
}

func Join(sp *domain.Space, user domain.UserProfile, opts JoinOptions) (Outcome, error) {
	if lo.Contains(sp.Banned, user.ID) {
		return "", domain.ErrBanned
	}
	if sp.IsParticipant(user.ID) {
		return "", domain.ErrAlreadyMember
	}
	if lifecycle.IsEnded(sp) {
		return "", domain.ErrSpaceEnded
	}

	if sp.AskToJoin && !opts.Force && !lo.Contains(sp.ApprovedToJoin, user.ID) {
		if lo.Contains(sp.AskToJoinQueue, user.ID) {
			return "", domain.ErrAlreadyRequested
		}
		sp.AskToJoinQueue = append(sp.AskToJoinQueue, user.ID)
		sp.AskToJoinHistory = append(sp.AskToJoinHistory, user.ID)
		return Queued, nil
	}

	outcome := PreApproved
	if opts.Force {
		sp.ApprovedToJoin = addUnique(sp.ApprovedToJoin, user.ID)
	} else {
		if err := admit(sp, user, opts.AsSpeaker, opts.EnforceCapacity); err != nil {
			return "", err
		}
		outcome = Joined
	}
	clearJoinMarkers(sp, user.ID)
	return outcome, nil
}

// ApproveJoinRequest admits a queued user in a single pass.
func ApproveJoinRequest(sp *domain.Space, user domain.UserProfile, asSpeaker bool, opts JoinOptions) error {
	if sp.IsParticipant(user.ID) {
		return domain.ErrAlreadyMember
	}
	if !lo.Contains(sp.AskToJoinQueue, user.ID) {
		return domain.ErrInvalidState
	}
	if lo.Contains(sp.Banned, user.ID) {
		return domain.ErrBanned
	}
	if lifecycle.IsEnded(sp) {
		return domain.ErrSpaceEnded
	}
	if err := admit(sp, user, asSpeaker, opts.EnforceCapacity); err != nil {
		return err
	}
	sp.ApprovedToJoin = addUnique(sp.ApprovedToJoin, user.ID)
	clearJoinMarkers(sp, user.ID)
	return nil
}

func RejectJoinRequest(sp *domain.Space, userID string) error {
	if sp.IsHost(userID) {
		return domain.ErrInvalidState
	}
	removeParticipant(sp, userID)
	sp.AskToJoinQueue = lo.Without(sp.AskToJoinQueue, userID)
	sp.ApprovedToJoin = lo.Without(sp.ApprovedToJoin, userID)
	sp.AskToJoinHistory = append(sp.AskToJoinHistory, userID)
	return nil
}

// Leave removes the user; a leaving host ends the space.
func Leave(sp *domain.Space, userID string, now time.Time) error {
	if !sp.IsParticipant(userID) {
		return domain.ErrNotParticipant
	}
	removeParticipant(sp, userID)
	if sp.IsHost(userID) {
		lifecycle.End(sp, now)
	}
	return nil
}

func Mute(sp *domain.Space, targetID string, muted bool) error {
	p := sp.Participant(targetID)
	if p == nil {
		return domain.ErrNotParticipant
	}
	p.Muted = muted
	return nil
}

// Ban permanently excludes the user; banning the host ends the space.
func Ban(sp *domain.Space, userID string, now time.Time) error {
	if userID == "" {
		return domain.ErrInvalidInput
	}
	if lo.Contains(sp.Banned, userID) {
		return domain.ErrBanned
	}
	removeParticipant(sp, userID)
	sp.AskToJoinQueue = lo.Without(sp.AskToJoinQueue, userID)
	sp.ApprovedToJoin = lo.Without(sp.ApprovedToJoin, userID)
	sp.Banned = append(sp.Banned, userID)
	if sp.IsHost(userID) {
		lifecycle.End(sp, now)
	}
	return nil
}

func admit(sp *domain.Space, user domain.UserProfile, asSpeaker, enforceCapacity bool) error {
	if enforceCapacity && sp.Capacity > 0 && len(sp.Participants) >= sp.Capacity {
		return domain.ErrSpaceFull
	}
	role := domain.RoleListener
	if asSpeaker {
		role = domain.RoleSpeaker
	}
	// speakers enter muted and have to unmute explicitly
	sp.Participants = append(sp.Participants, domain.NewParticipant(user, role, asSpeaker))
	if asSpeaker {
		sp.Speakers = addUnique(sp.Speakers, user.ID)
	} else {
		sp.Listeners = addUnique(sp.Listeners, user.ID)
	}
	return nil
}

func clearJoinMarkers(sp *domain.Space, userID string) {
	sp.AskToJoinQueue = lo.Without(sp.AskToJoinQueue, userID)
	sp.AskToJoinHistory = lo.Without(sp.AskToJoinHistory, userID)
}

// removeParticipant drops every roster trace of userID except the logs.
func removeParticipant(sp *domain.Space, userID string) {
	sp.Participants = lo.Filter(sp.Participants, func(p domain.Participant, _ int) bool {
		return p.ID != userID
	})
	sp.Speakers = lo.Without(sp.Speakers, userID)
	sp.Listeners = lo.Without(sp.Listeners, userID)
	sp.AskToSpeakQueue = lo.Without(sp.AskToSpeakQueue, userID)
}

func addUnique(ids []string, id string) []string {
	if lo.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
