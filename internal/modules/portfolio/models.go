// Package portfolio reconstructs portfolio state by replaying the
// order ledger.
package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
)

// Transaction is one applied ledger mutation on a holding.
type Transaction struct {
	Date   time.Time       `json:"date"`
	Action domain.Action   `json:"action"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

// Holding is the replayed state of one position. Cost basis uses
// average-cost accounting: sells keep the average purchase price and
// shrink total investment proportionally.
type Holding struct {
	Symbol              string          `json:"symbol"`
	TotalShares         int64           `json:"total_shares"`
	TotalInvestment     decimal.Decimal `json:"total_investment"`
	AvgPrice            decimal.Decimal `json:"avg_price"`
	FirstPurchaseDate   time.Time       `json:"first_purchase_date"`
	LastTransactionDate time.Time       `json:"last_transaction_date"`
	Transactions        []Transaction   `json:"transactions"`
}

// TimelineEntry is one row of the flattened, chronological order history.
type TimelineEntry struct {
	Date   time.Time       `json:"date"`
	Symbol string          `json:"symbol"`
	Action domain.Action   `json:"action"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

// Construction is the result of a full ledger replay.
type Construction struct {
	Holdings         map[string]*Holding `json:"holdings"`
	Timeline         []TimelineEntry     `json:"timeline"`
	TotalCashOutflow decimal.Decimal     `json:"total_cash_outflow"`
	FirstOrderDate   time.Time           `json:"first_order_date"`
	LastOrderDate    time.Time           `json:"last_order_date"`
	TotalOrders      int                 `json:"total_orders"`
	ProcessedOrders  int                 `json:"processed_orders"`
	ErrorOrders      int                 `json:"error_orders"`
}

// Symbols returns the active holding symbols in no particular order.
func (c *Construction) Symbols() []string {
	out := make([]string, 0, len(c.Holdings))
	for s := range c.Holdings {
		out = append(out, s)
	}
	return out
}

// ValidationSummary carries headline numbers for a validation report.
type ValidationSummary struct {
	TotalHoldings         int             `json:"total_holdings"`
	TotalShares           int64           `json:"total_shares"`
	TotalInvestment       decimal.Decimal `json:"total_investment"`
	AvgInvestmentPerStock decimal.Decimal `json:"avg_investment_per_stock"`
}

// DataQuality reports how cleanly the ledger replayed.
type DataQuality struct {
	ProcessingSuccessRate float64 `json:"processing_success_rate"`
}

// ValidationReport cross-checks a construction for internal consistency.
// Warnings are data-quality signals; only hard errors flip IsValid.
type ValidationReport struct {
	IsValid     bool              `json:"is_valid"`
	Errors      []string          `json:"errors,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
	Summary     ValidationSummary `json:"summary"`
	DataQuality DataQuality       `json:"data_quality"`
}
