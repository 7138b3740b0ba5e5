// Package view holds read-only projections of spaces. Every caller renders
// state through these functions instead of re-deriving policy.
package view

import (
	"time"

	"github.com/samber/lo"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/lifecycle"
)

type JoinStatus string

const (
	JoinNone            JoinStatus = ""
	JoinBanned          JoinStatus = "Banned"
	JoinApproved        JoinStatus = "Approved"
	JoinLobby           JoinStatus = "Lobby"
	JoinPendingApproval JoinStatus = "Pending approval"
	JoinRejected        JoinStatus = "Rejected"
	JoinRequest         JoinStatus = "Request to join"
)

// GetJoinStatus evaluates the conditions in a fixed precedence order since
// several of them can hold at once.
func GetJoinStatus(sp *domain.Space, userID string) JoinStatus {
	switch {
	case userID == "":
		return JoinNone
	case lo.Contains(sp.Banned, userID):
		return JoinBanned
	case sp.IsParticipant(userID):
		return JoinApproved
	case lo.Contains(sp.ApprovedToJoin, userID):
		return JoinLobby
	case lo.Contains(sp.AskToJoinQueue, userID):
		return JoinPendingApproval
	case lo.Contains(sp.AskToJoinHistory, userID):
		return JoinRejected
	case !sp.AskToJoin:
		return JoinLobby
	default:
		return JoinRequest
	}
}

type Counts struct {
	Speakers  int `json:"speakers"`
	Listeners int `json:"listeners"`
}

// GetCounts counts the host as a speaker and never as a listener.
func GetCounts(sp *domain.Space) Counts {
	c := Counts{Speakers: len(sp.Speakers), Listeners: len(sp.Listeners)}
	if !lo.Contains(sp.Speakers, sp.Host) {
		c.Speakers++
	}
	return c
}

type Status string

const (
	StatusAll       Status = "All"
	StatusLive      Status = "Live"
	StatusScheduled Status = "Scheduled"
	StatusEnded     Status = "Ended"
)

// GetStatus is the one place a space's badge is derived; Filter matches on it.
// An inactive space that never recorded an end time counts as ended.
func GetStatus(sp *domain.Space, now time.Time) Status {
	switch {
	case lifecycle.IsLive(sp, now):
		return StatusLive
	case !lifecycle.IsEnded(sp) && lifecycle.IsScheduled(sp, now):
		return StatusScheduled
	default:
		return StatusEnded
	}
}

type SpeakStatus string

const (
	SpeakNone       SpeakStatus = ""
	SpeakSpeaker    SpeakStatus = "Speaker"
	SpeakPending    SpeakStatus = "Pending"
	SpeakRejected   SpeakStatus = "Rejected"
	SpeakCanRequest SpeakStatus = "Can request"
	SpeakOpen       SpeakStatus = "Open"
)

// GetSpeakStatus tells a participant what the speak control should offer.
// A pending request wins over an earlier rejection.
func GetSpeakStatus(sp *domain.Space, userID string) SpeakStatus {
	p := sp.Participant(userID)
	switch {
	case p == nil:
		return SpeakNone
	case p.Role.Capabilities().Has(domain.CanBroadcastAudio):
		return SpeakSpeaker
	case !sp.AskToSpeak:
		return SpeakOpen
	case lo.Contains(sp.AskToSpeakQueue, userID):
		return SpeakPending
	case lo.Contains(sp.RejectedSpeakers, userID):
		return SpeakRejected
	default:
		return SpeakCanRequest
	}
}

// CanSpeak reports whether the participant may open their microphone.
func CanSpeak(sp *domain.Space, userID string) bool {
	p := sp.Participant(userID)
	if p == nil {
		return false
	}
	return p.Role.Capabilities().Has(domain.CanBroadcastAudio) || !sp.AskToSpeak
}

// CanModerate reports whether userID holds moderation rights in the space.
func CanModerate(sp *domain.Space, userID string) bool {
	p := sp.Participant(userID)
	return p != nil && p.Role.Capabilities().Has(domain.CanModerate)
}
