package ws

import (
	"sync"
	"time"

	"github.com/cwrk-planet/space-service/internal/service"
	"github.com/cwrk-planet/space-service/internal/view"
)

type Conn interface {
	Send(msg Message) error
	Close() error
	UserID() string
	SpaceID() string
}

// Hub fans space events out to the sockets watching that space. Every
// connection gets the summary rendered for its own user.
type Hub struct {
	mu     sync.RWMutex
	spaces map[string]map[Conn]struct{} // spaceID -> set of connections
	now    func() time.Time
}

func NewHub() *Hub {
	return &Hub{spaces: make(map[string]map[Conn]struct{}), now: time.Now}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cs, ok := h.spaces[c.SpaceID()]
	if !ok {
		cs = make(map[Conn]struct{})
		h.spaces[c.SpaceID()] = cs
	}
	cs[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cs, ok := h.spaces[c.SpaceID()]; ok {
		delete(cs, c)
		if len(cs) == 0 {
			delete(h.spaces, c.SpaceID())
		}
	}
}

// Count reports how many sockets watch spaceID.
func (h *Hub) Count(spaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.spaces[spaceID])
}

// Publish implements service.Publisher.
func (h *Hub) Publish(ev service.Event) {
	if ev.Space == nil {
		return
	}
	typ := TypeSpaceUpdated
	if ev.Type == service.EventSpaceEnded {
		typ = TypeSpaceEnded
	}
	now := h.now()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.spaces[ev.Space.ID] {
		_ = c.Send(Message{Type: typ, Payload: view.Summarize(ev.Space, c.UserID(), now)}) // best-effort
	}
}
