package assistant

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/query", h.HandleQuery)
	r.Get("/api/status", h.HandleStatus)
}
