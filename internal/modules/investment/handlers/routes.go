package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all investment routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/investment", func(r chi.Router) {
		r.Post("/plan", h.HandlePlan)
		r.Post("/execute", h.HandleExecute)
	})
}
