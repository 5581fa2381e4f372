package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	router.Get("/api/version", h.getVersion)

	router.Group(func(r chi.Router) {
		r.Get("/api/sync/stats", h.getStats)
		r.Post("/api/sync/flush", h.flush)
		r.Delete("/api/sync/pending", h.discardPending)
	})

	router.Group(func(r chi.Router) {
		r.Get("/api/session", h.restore)
		r.Delete("/api/session", h.logout)
		r.Post("/api/session/login", h.login)
		r.Post("/api/session/refresh", h.refreshTokens)
		r.Put("/api/session/profile", h.updateProfile)
		r.Post("/api/session/touch", h.touch)
	})

	if h.metrics != nil {
		router.Method(http.MethodGet, "/metrics", h.metrics)
	}

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
