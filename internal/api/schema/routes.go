package schema

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers schema routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/schema", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Post("/ask", h.Ask)
		r.Get("/summary", h.Summary)
	})
}
