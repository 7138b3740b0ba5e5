package domain

// Snapshot is the whole persisted document. Version is bumped by every
// successful save and is zero for documents written by legacy clients.
type Snapshot struct {
	Users   []UserProfile `json:"users"`
	Spaces  []Space       `json:"spaces"`
	Version int64         `json:"version,omitempty"`
}

func (s *Snapshot) Space(id string) *Space {
	for i := range s.Spaces {
		if s.Spaces[i].ID == id {
			return &s.Spaces[i]
		}
	}
	return nil
}

func (s *Snapshot) User(id string) *UserProfile {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Users:   append(make([]UserProfile, 0, len(s.Users)), s.Users...),
		Spaces:  make([]Space, 0, len(s.Spaces)),
		Version: s.Version,
	}
	for i := range s.Spaces {
		out.Spaces = append(out.Spaces, *s.Spaces[i].Clone())
	}
	return out
}

// Normalize fills nil collections so JSON always carries arrays instead of null.
func (s *Snapshot) Normalize() {
	if s.Users == nil {
		s.Users = []UserProfile{}
	}
	if s.Spaces == nil {
		s.Spaces = []Space{}
	}
	for i := range s.Spaces {
		s.Spaces[i].Normalize()
	}
}
