package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all income routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/income", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/{symbol}", h.HandleListBySymbol)
		r.Delete("/{id}", h.HandleDelete)
	})
}
