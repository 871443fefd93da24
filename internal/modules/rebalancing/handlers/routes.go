package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all rebalancing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/rebalancing", func(r chi.Router) {
		r.Post("/check", h.HandleCheck)
		r.Post("/plan", h.HandlePlan)
		r.Post("/commit", h.HandleCommit)
	})
}
