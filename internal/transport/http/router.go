package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/space-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/space-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

func NewRouter(h *Handler, wsServer *ws.Server, opts RouterOptions) http.Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httpmw.Trace("space-service/http"))
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "traceparent", "tracestate", httpmw.HeaderUserID},
		MaxAge:         300,
	}))
	r.Use(httpmw.Identify)

	// WS endpoint, no timeout
	r.Get("/ws/spaces/{id}", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.RequestLogger)
		pr.Use(middlewareChi.Timeout(opts.Timeout))

		pr.Get("/api/read", h.ReadDocument)
		pr.Post("/api/write", h.WriteDocument)

		pr.Route("/users", func(ur chi.Router) {
			ur.Post("/", h.CreateUser)
			ur.Get("/available", h.AvailableUsers)
			ur.Get("/{id}", h.GetUser)
			ur.Post("/{id}/take", h.TakeUser)
			ur.Post("/{id}/free", h.FreeUser)
		})

		pr.Route("/spaces", func(sr chi.Router) {
			sr.Get("/", h.ListSpaces)
			sr.Get("/top", h.TopSpaces)
			sr.Get("/{id}", h.GetSpace)

			sr.Group(func(ar chi.Router) {
				ar.Use(httpmw.RequireUser)
				ar.Post("/", h.CreateSpace)
				ar.Get("/recent", h.RecentSpaces)
				ar.Get("/active", h.ActiveSpace)

				ar.Post("/{id}/end", h.EndSpace)
				ar.Post("/{id}/join", h.JoinSpace)
				ar.Post("/{id}/leave", h.LeaveSpace)
				ar.Post("/{id}/mute", h.Mute)
				ar.Post("/{id}/speak-requests", h.RequestToSpeak)
				ar.Post("/{id}/speak-requests/{userID}/approve", h.ApproveSpeakRequest)
				ar.Post("/{id}/speak-requests/{userID}/reject", h.RejectSpeakRequest)
				ar.Post("/{id}/speakers/{userID}", h.GrantSpeakingRole)
				ar.Post("/{id}/join-requests/{userID}/approve", h.ApproveJoinRequest)
				ar.Post("/{id}/join-requests/{userID}/reject", h.RejectJoinRequest)
				ar.Post("/{id}/invites/{userID}", h.InviteUser)
				ar.Post("/{id}/bans/{userID}", h.Ban)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
