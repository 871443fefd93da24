package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers ledger routes on the given router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.HandleListOrders)
		r.Post("/{id}/status", h.HandleUpdateStatus)
	})
}
