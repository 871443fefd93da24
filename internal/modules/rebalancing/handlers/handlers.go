// Package handlers provides HTTP handlers for rebalancing workflows.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/modules/portfolio"
	"github.com/quantfolio/quantfolio/internal/modules/rebalancing"
	"github.com/quantfolio/quantfolio/internal/modules/universe"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	ledger      domain.LedgerStore
	constructor *portfolio.Constructor
	planner     *rebalancing.Planner
	provider    universe.Provider
	log         zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(
	ledger domain.LedgerStore,
	constructor *portfolio.Constructor,
	planner *rebalancing.Planner,
	provider universe.Provider,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		ledger:      ledger,
		constructor: constructor,
		planner:     planner,
		provider:    provider,
		log:         log.With().Str("handler", "rebalancing").Logger(),
	}
}

// PlanRequest carries the inputs for a rebalancing plan. Universe and
// prices are optional; when absent the configured provider fills them.
type PlanRequest struct {
	AdditionalInvestment decimal.Decimal     `json:"additional_investment"`
	Universe             []domain.StockQuote `json:"universe,omitempty"`
	Prices               domain.PriceMap     `json:"prices,omitempty"`
}

// CommitRequest carries the plan orders to persist.
type CommitRequest struct {
	PlanID string                     `json:"plan_id"`
	Orders []rebalancing.PlannedOrder `json:"orders"`
}

// HandleCheck handles POST /api/rebalancing/check
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	construction, err := h.currentConstruction()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	snapshot, err := h.provider.Snapshot()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch target universe")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	need := h.planner.CheckNeeded(construction.Symbols(), snapshot.Symbols())
	h.writeJSON(w, http.StatusOK, need)
}

// HandlePlan handles POST /api/rebalancing/plan
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	construction, err := h.currentConstruction()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	targetUniverse := req.Universe
	prices := req.Prices
	if len(targetUniverse) == 0 {
		snapshot, err := h.provider.Snapshot()
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to fetch target universe")
			h.writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		targetUniverse = snapshot.Quotes()
		if prices == nil {
			prices = snapshot.Prices()
		}
	}

	plan, err := h.planner.CalculatePlan(construction.Holdings, prices, targetUniverse, req.AdditionalInvestment)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// HandleCommit handles POST /api/rebalancing/commit: appends the plan's
// orders to the ledger as pending.
func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Orders) == 0 {
		h.writeError(w, http.StatusBadRequest, "Plan has no orders to commit")
		return
	}

	executionTime := time.Now().UTC().Format(time.RFC3339)
	records := make([]domain.OrderRecord, 0, len(req.Orders))
	for _, o := range req.Orders {
		records = append(records, domain.OrderRecord{
			Symbol:        o.Symbol,
			Action:        o.Action,
			Shares:        o.Shares,
			Price:         o.Price,
			Value:         o.Value,
			ExecutionTime: executionTime,
			SessionType:   domain.SessionRebalancing,
			Status:        domain.StatusPending,
		})
	}

	persisted, err := h.ledger.AppendAll(records)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.log.Info().
		Str("plan_id", req.PlanID).
		Int("orders", len(persisted)).
		Msg("Rebalancing plan committed to ledger")

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"plan_id": req.PlanID,
		"orders":  persisted,
	})
}

func (h *Handler) currentConstruction() (*portfolio.Construction, error) {
	orders, err := h.ledger.All()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load order ledger")
		return nil, err
	}
	return h.constructor.ConstructFromOrders(orders), nil
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNoHoldings),
		errors.Is(err, domain.ErrNoTargetUniverse):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Rebalancing operation failed")
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
