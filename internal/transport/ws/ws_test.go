package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/service"
	"github.com/cwrk-planet/space-service/internal/storage/memory"
	"github.com/cwrk-planet/space-service/internal/view"
)

type fakeConn struct {
	mu      sync.Mutex
	user    string
	space   string
	msgs    []Message
	summary []view.Summary
}

func (f *fakeConn) Send(msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	if s, ok := msg.Payload.(view.Summary); ok {
		f.summary = append(f.summary, s)
	}
	return nil
}
func (f *fakeConn) Close() error    { return nil }
func (f *fakeConn) UserID() string  { return f.user }
func (f *fakeConn) SpaceID() string { return f.space }

func TestHubPublishesPerUser(t *testing.T) {
	hub := NewHub()
	host := &fakeConn{user: "host", space: "s1"}
	guest := &fakeConn{user: "guest", space: "s1"}
	elsewhere := &fakeConn{user: "host", space: "s2"}
	hub.Add(host)
	hub.Add(guest)
	hub.Add(elsewhere)

	sp := &domain.Space{ID: "s1", Host: "host", Active: true,
		Participants: []domain.Participant{{ID: "host", Role: domain.RoleHost}}}
	sp.Normalize()
	hub.Publish(service.Event{Type: service.EventSpaceUpdated, Space: sp})

	if len(host.msgs) != 1 || host.msgs[0].Type != TypeSpaceUpdated || !host.summary[0].CanModerate {
		t.Fatalf("host got %+v", host.msgs)
	}
	if len(guest.msgs) != 1 || guest.summary[0].CanModerate {
		t.Fatalf("guest got %+v", guest.msgs)
	}
	if len(elsewhere.msgs) != 0 {
		t.Fatalf("other space received event")
	}

	hub.Remove(guest)
	if hub.Count("s1") != 1 {
		t.Fatalf("count = %d", hub.Count("s1"))
	}
	hub.Publish(service.Event{Type: service.EventSpaceEnded, Space: sp})
	if host.msgs[1].Type != TypeSpaceEnded || len(guest.msgs) != 1 {
		t.Fatalf("ended event routing wrong")
	}
}

func TestServerStreamsUpdates(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	store := service.NewStore(memory.New())
	users := service.NewUserService(store)
	spaces := service.NewSpaceService(store, service.WithPublisher(hub))

	host, _ := users.CreateProfile(ctx, "Host", "")
	guest, _ := users.CreateProfile(ctx, "Guest", "")
	sp, err := spaces.CreateSpace(ctx, host.ID, service.CreateSpaceInput{Title: "Live"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/ws/spaces/{id}", NewServer(hub, spaces, time.Second).HandleWS)
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	if _, resp, err := websocket.DefaultDialer.Dial(base+"/ws/spaces/missing", nil); err == nil || resp.StatusCode != 404 {
		t.Fatalf("missing space should be 404, err = %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"/ws/spaces/"+sp.ID+"?user_id="+host.ID, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var msg struct {
		Type    string       `json:"type"`
		Payload view.Summary `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read state: %v", err)
	}
	if msg.Type != TypeState || !msg.Payload.CanModerate {
		t.Fatalf("state = %+v", msg)
	}

	// the hub registers the socket before sending state, so the join is observed
	if _, _, err := spaces.JoinSpace(ctx, sp.ID, guest.ID, false); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if msg.Type != TypeSpaceUpdated || msg.Payload.Counts.Listeners != 1 {
		t.Fatalf("update = %+v", msg)
	}

	if _, err := spaces.EndSpace(ctx, sp.ID, host.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read ended: %v", err)
	}
	if msg.Type != TypeSpaceEnded || msg.Payload.Status != view.StatusEnded {
		t.Fatalf("ended = %+v", msg)
	}
}
