// Package handlers provides HTTP handlers for portfolio state.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/modules/metrics"
	"github.com/quantfolio/quantfolio/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	ledger      domain.LedgerStore
	constructor *portfolio.Constructor
	engine      *metrics.Engine
	log         zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(ledger domain.LedgerStore, constructor *portfolio.Constructor, engine *metrics.Engine, log zerolog.Logger) *Handler {
	return &Handler{
		ledger:      ledger,
		constructor: constructor,
		engine:      engine,
		log:         log.With().Str("handler", "portfolio").Logger(),
	}
}

// MetricsRequest carries current prices for a metrics calculation
type MetricsRequest struct {
	Prices domain.PriceMap `json:"prices"`
}

// HandleGetPortfolio handles GET /api/portfolio: replays the ledger and
// returns holdings plus a validation report.
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	orders, err := h.ledger.All()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load order ledger")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	construction := h.constructor.ConstructFromOrders(orders)
	report := h.constructor.Validate(construction)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio":  construction,
		"validation": report,
	})
}

// HandleMetrics handles POST /api/portfolio/metrics: the caller supplies
// current prices, the ledger supplies the positions.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	orders, err := h.ledger.All()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load order ledger")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	construction := h.constructor.ConstructFromOrders(orders)
	result := h.engine.ComprehensiveMetrics(construction, req.Prices)

	h.writeJSON(w, http.StatusOK, result)
}

// HandleSummary handles POST /api/portfolio/summary: dashboard totals
// over executed orders only. The prices body is optional; without it
// holdings are valued at cost basis.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	orders, err := h.ledger.All()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load order ledger")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, h.engine.Summary(orders, req.Prices))
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
