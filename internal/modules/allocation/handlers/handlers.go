// Package handlers provides HTTP handlers for allocation calculations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/modules/allocation"
)

// Handler handles allocation HTTP requests
type Handler struct {
	calc *allocation.Calculator
	log  zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(calc *allocation.Calculator, log zerolog.Logger) *Handler {
	return &Handler{
		calc: calc,
		log:  log.With().Str("handler", "allocation").Logger(),
	}
}

// StocksRequest carries the quotes for a minimum-investment calculation
type StocksRequest struct {
	Stocks []domain.StockQuote `json:"stocks"`
}

// OptimalRequest carries an amount and quotes for an allocation run
type OptimalRequest struct {
	Amount decimal.Decimal     `json:"amount"`
	Stocks []domain.StockQuote `json:"stocks"`
}

// HandleMinimumInvestment handles POST /api/allocation/minimum
func (h *Handler) HandleMinimumInvestment(w http.ResponseWriter, r *http.Request) {
	var req StocksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := h.calc.MinimumInvestment(req.Stocks)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, info)
}

// HandleOptimalAllocation handles POST /api/allocation/optimal
func (h *Handler) HandleOptimalAllocation(w http.ResponseWriter, r *http.Request) {
	var req OptimalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.calc.OptimalAllocation(req.Amount, req.Stocks)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// writeDomainError maps domain errors onto HTTP status codes
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
		h.log.Error().Err(err).Msg("Allocation calculation failed")
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
