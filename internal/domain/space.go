package domain

import "time"

const (
	DefaultCapacity = 100
	DefaultDuration = 15 * time.Minute
)

// Space is the aggregate root. Timestamps and the duration are kept in epoch
// milliseconds so the document stays compatible with the db.json format.
type Space struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RemoteName  string `json:"remoteName"`

	Participants []Participant `json:"participants"`
	Host         string        `json:"host"`
	Speakers     []string      `json:"speakers"`
	Listeners    []string      `json:"listeners"`

	StartedAt int64 `json:"startedAt"`
	Duration  int64 `json:"duration"`
	EndedAt   int64 `json:"endedAt"`
	Active    bool  `json:"active"`

	Capacity   int  `json:"capacity"`
	AskToJoin  bool `json:"askToJoin"`
	AskToSpeak bool `json:"askToSpeak"`

	AskToJoinQueue   []string `json:"askToJoinQueue"`
	ApprovedToJoin   []string `json:"approvedToJoin"`
	AskToJoinHistory []string `json:"askToJoinHistory"`
	Banned           []string `json:"banned"`

	AskToSpeakQueue      []string         `json:"askToSpeakQueue"`
	AskToSpeakHistory    []string         `json:"askToSpeakHistory"`
	AskToSpeakTimestamps map[string]int64 `json:"askToSpeakTimestamps"`
	RejectedSpeakers     []string         `json:"rejectedSpeakers"`
}

// Participant returns the membership record of userID, or nil.
func (s *Space) Participant(userID string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ID == userID {
			return &s.Participants[i]
		}
	}
	return nil
}

func (s *Space) IsParticipant(userID string) bool {
	return s.Participant(userID) != nil
}

func (s *Space) IsHost(userID string) bool {
	return userID != "" && s.Host == userID
}

// Clone returns a deep copy so callers can mutate without aliasing the stored snapshot.
func (s *Space) Clone() *Space {
	c := *s
	c.Participants = append(make([]Participant, 0, len(s.Participants)), s.Participants...)
	c.Speakers = cloneIDs(s.Speakers)
	c.Listeners = cloneIDs(s.Listeners)
	c.AskToJoinQueue = cloneIDs(s.AskToJoinQueue)
	c.ApprovedToJoin = cloneIDs(s.ApprovedToJoin)
	c.AskToJoinHistory = cloneIDs(s.AskToJoinHistory)
	c.Banned = cloneIDs(s.Banned)
	c.AskToSpeakQueue = cloneIDs(s.AskToSpeakQueue)
	c.AskToSpeakHistory = cloneIDs(s.AskToSpeakHistory)
	c.RejectedSpeakers = cloneIDs(s.RejectedSpeakers)
	c.AskToSpeakTimestamps = make(map[string]int64, len(s.AskToSpeakTimestamps))
	for k, v := range s.AskToSpeakTimestamps {
		c.AskToSpeakTimestamps[k] = v
	}
	return &c
}

// Normalize replaces nil collections left by legacy documents with empty ones.
func (s *Space) Normalize() {
	if s.Participants == nil {
		s.Participants = []Participant{}
	}
	for _, ids := range []*[]string{
		&s.Speakers, &s.Listeners,
		&s.AskToJoinQueue, &s.ApprovedToJoin, &s.AskToJoinHistory, &s.Banned,
		&s.AskToSpeakQueue, &s.AskToSpeakHistory, &s.RejectedSpeakers,
	} {
		if *ids == nil {
			*ids = []string{}
		}
	}
	if s.AskToSpeakTimestamps == nil {
		s.AskToSpeakTimestamps = map[string]int64{}
	}
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return append(make([]string, 0, len(ids)), ids...)
}
