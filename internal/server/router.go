package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"messagely/internal/metrics"
	"net/http"
)

// routes builds the chi router serving every endpoint
func (h *handler) routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(h.logRequests)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	r.With(requireJSON).Post("/login", h.login)
	r.With(requireJSON).Post("/register", h.register)

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Route("/messages", func(r chi.Router) {
			r.With(requireJSON).Post("/", h.sendMessage)
			r.Get("/{id}", h.getMessage)
			r.Post("/{id}/read", h.markRead)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Route("/{username}", func(r chi.Router) {
				r.Get("/", h.getUser)
				r.Get("/to", h.inbox)
				r.Get("/from", h.outbox)
			})
		})
	})

	return r
}
