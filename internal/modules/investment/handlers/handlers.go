// Package handlers provides HTTP handlers for the investment workflow.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/modules/investment"
)

// Handler handles investment HTTP requests
type Handler struct {
	service *investment.Service
	log     zerolog.Logger
}

// NewHandler creates a new investment handler
func NewHandler(service *investment.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "investment").Logger(),
	}
}

// InvestmentRequest carries the amount and quotes for an investment
type InvestmentRequest struct {
	Amount decimal.Decimal     `json:"amount"`
	Stocks []domain.StockQuote `json:"stocks"`
}

// HandlePlan handles POST /api/investment/plan
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	var req InvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.service.Plan(req.Amount, req.Stocks)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// HandleExecute handles POST /api/investment/execute
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req InvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, records, err := h.service.Execute(req.Amount, req.Stocks)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"allocation": summary,
		"orders":     records,
	})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var belowErr *domain.BelowMinimumInvestmentError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &belowErr):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":              belowErr.Error(),
			"minimum_investment": belowErr.Minimum,
			"requested_amount":   belowErr.Requested,
		})
	default:
		h.log.Error().Err(err).Msg("Investment operation failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
