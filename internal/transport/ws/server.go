package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const DefaultPingEvery = 15 * time.Second

type SpaceSvc interface {
	Summary(ctx context.Context, id, userID string) (view.Summary, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	spaceSvc SpaceSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, spaces SpaceSvc, pingEvery time.Duration) *Server {
	if pingEvery <= 0 {
		pingEvery = DefaultPingEvery
	}
	return &Server{
		hub:      hub,
		spaceSvc: spaces,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: pingEvery,
	}
}

// WS endpoint: GET /ws/spaces/{id}?user_id=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "id")
	if spaceID == "" {
		http.Error(w, "missing space id", http.StatusBadRequest)
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))

	// refuse unknown spaces before upgrading
	if _, err := s.spaceSvc.Summary(r.Context(), spaceID, userID); err != nil {
		if errors.Is(err, domain.ErrSpaceNotFound) {
			http.Error(w, "space not found", http.StatusNotFound)
			return
		}
		slog.Error("ws.HandleWS:", slog.Any("err", err))
		http.Error(w, "service error", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, spaceID, userID)
	s.hub.Add(c)

	if err := s.sendState(r.Context(), c); err != nil {
		slog.Warn("ws send initial state failed", "space", spaceID, "user", userID, "err", err)
	}

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	s.hub.Remove(c)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "space", spaceID, "user", userID, "err", err)
	}
}

func (s *Server) sendState(ctx context.Context, c *wsConn) error {
	summary, err := s.spaceSvc.Summary(ctx, c.spaceID, c.userID)
	if err != nil {
		_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Error: err.Error()}})
		return err
	}
	return c.Send(Message{Type: TypeState, Payload: summary})
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 16)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case TypeRefresh:
			if err := s.sendState(ctx, c); err != nil {
				slog.Debug("ws refresh failed", "space", c.spaceID, "err", err)
			}
		default:
			// commands go through HTTP or gRPC
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

type wsConn struct {
	conn    *websocket.Conn
	spaceID string
	userID  string
	sendMu  chan struct{}
	closed  chan struct{}
}

func newWsConn(c *websocket.Conn, spaceID, userID string) *wsConn {
	return &wsConn{
		conn:    c,
		spaceID: spaceID,
		userID:  userID,
		sendMu:  make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) UserID() string  { return c.userID }
func (c *wsConn) SpaceID() string { return c.spaceID }
