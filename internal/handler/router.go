package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cloudmesh/ledger/internal/event"
	"github.com/cloudmesh/ledger/internal/service"
)

// NewRouter assembles the full API surface.
func NewRouter(auth *service.AuthService, jobs *service.JobService, broker *event.Broker, allowedOrigins []string) *chi.Mux {
	authHandler := NewAuthHandler(auth)
	jobHandler := NewJobHandler(jobs)
	streamHandler := NewStreamHandler(broker)

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recover)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/challenge", authHandler.Challenge)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// The read projection is public; transitions require a caller.
		r.Get("/jobs", jobHandler.List)
		r.Get("/jobs/{address}", jobHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(JWTAuth(auth))

			r.Post("/jobs", jobHandler.Create)
			r.Post("/jobs/{address}/complete", jobHandler.Complete)
			r.Post("/jobs/{address}/cancel", jobHandler.Cancel)
			r.Post("/jobs/{address}/payment", jobHandler.MarkPayment)
		})

		r.With(StreamAuth(auth)).Get("/events", streamHandler.Events)
	})

	return r
}
