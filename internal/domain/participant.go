package domain

type Role string

const (
	RoleHost      Role = "host"
	RoleSpeaker   Role = "speaker"
	RoleListener  Role = "listener"
	RoleRequested Role = "requested" // listener waiting for a speak approval
)

// Capability is a bit set of what a role may do inside a space.
type Capability uint8

const (
	CanBroadcastAudio Capability = 1 << iota
	CanModerate
)

func (c Capability) Has(want Capability) bool { return c&want == want }

// Capabilities is the single place that decides what a role is allowed to do;
// the host implicitly holds every speaker capability.
func (r Role) Capabilities() Capability {
	switch r {
	case RoleHost:
		return CanBroadcastAudio | CanModerate
	case RoleSpeaker:
		return CanBroadcastAudio
	default:
		return 0
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleSpeaker, RoleListener, RoleRequested:
		return true
	}
	return false
}

type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Role        Role   `json:"role"`
	Muted       bool   `json:"muted"`
}

func NewParticipant(u UserProfile, role Role, muted bool) Participant {
	return Participant{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   AvatarOrDefault(u.AvatarURL),
		Role:        role,
		Muted:       muted,
	}
}
