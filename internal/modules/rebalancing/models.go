// Package rebalancing plans order sets that move the portfolio onto
// the current target universe.
package rebalancing

import (
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/modules/allocation"
)

// Need is the result of the cheap set-difference gate that runs before
// a full plan calculation.
type Need struct {
	Needed        bool     `json:"needed"`
	NewStocks     []string `json:"new_stocks"`
	RemovedStocks []string `json:"removed_stocks"`
	CommonStocks  []string `json:"common_stocks"`
}

// PlannedOrder is one proposed trade in a rebalancing plan.
type PlannedOrder struct {
	Symbol string          `json:"symbol"`
	Action domain.Action   `json:"action"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
	Reason string          `json:"reason"`
}

// PlanSummary aggregates a plan's cash flows.
type PlanSummary struct {
	CurrentPortfolioValue decimal.Decimal `json:"current_portfolio_value"`
	AdditionalInvestment  decimal.Decimal `json:"additional_investment"`
	TotalRebalancingValue decimal.Decimal `json:"total_rebalancing_value"`
	TotalBuyValue         decimal.Decimal `json:"total_buy_value"`
	TotalSellValue        decimal.Decimal `json:"total_sell_value"`
	NetInvestmentNeeded   decimal.Decimal `json:"net_investment_needed"`
	RemainingCash         decimal.Decimal `json:"remaining_cash"`
	TotalStocks           int             `json:"total_stocks"`
	BuyOrdersCount        int             `json:"buy_orders_count"`
	SellOrdersCount       int             `json:"sell_orders_count"`
	RebalancingNeeded     bool            `json:"rebalancing_needed"`
}

// Plan is a complete rebalancing proposal. It is advisory until the
// caller commits its orders to the ledger.
type Plan struct {
	PlanID         string              `json:"plan_id"`
	Need           Need                `json:"need"`
	BuyOrders      []PlannedOrder      `json:"buy_orders"`
	SellOrders     []PlannedOrder      `json:"sell_orders"`
	Summary        PlanSummary         `json:"summary"`
	Allocation     *allocation.Summary `json:"allocation,omitempty"`
	DegradedPrices []string            `json:"degraded_prices,omitempty"`
}
