package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all position routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/positions", func(r chi.Router) {
		r.Get("/", h.HandleListOpen)
		r.Get("/closed", h.HandleListClosed)
		r.Get("/{symbol}", h.HandleGetPosition)
		r.Get("/{symbol}/covered-call", h.HandleGetCoveredCall)
	})
}
