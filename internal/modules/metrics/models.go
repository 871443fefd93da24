// Package metrics derives performance and risk numbers from a
// constructed portfolio and current prices.
package metrics

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockMetrics is the per-holding slice of a metrics report.
type StockMetrics struct {
	Symbol           string          `json:"symbol"`
	Shares           int64           `json:"shares"`
	AvgPrice         decimal.Decimal `json:"avg_price"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	InvestmentValue  decimal.Decimal `json:"investment_value"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	AbsoluteReturn   decimal.Decimal `json:"absolute_return"`
	PercentageReturn float64         `json:"percentage_return"`
	AllocationPct    float64         `json:"allocation_pct"`
	DaysHeld         int             `json:"days_held"`
	YearsHeld        float64         `json:"years_held"`
	AnnualizedReturn float64         `json:"annualized_return"`
	FirstPurchase    time.Time       `json:"first_purchase"`
	TransactionCount int             `json:"transaction_count"`
	PriceFallback    bool            `json:"price_fallback"`
}

// PerformerRef names a holding in a performance ranking.
type PerformerRef struct {
	Symbol           string  `json:"symbol"`
	PercentageReturn float64 `json:"percentage_return"`
}

// AllocationAnalysis compares actual weights against a uniform target.
type AllocationAnalysis struct {
	TargetPct         float64 `json:"target_pct"`
	MinPct            float64 `json:"min_pct"`
	MaxPct            float64 `json:"max_pct"`
	AvgPct            float64 `json:"avg_pct"`
	AvgDeviation      float64 `json:"avg_deviation"`
	RebalancingNeeded bool    `json:"rebalancing_needed"`
}

// SummaryHolding is one position in the dashboard summary.
type SummaryHolding struct {
	Symbol       string          `json:"symbol"`
	Shares       int64           `json:"shares"`
	Investment   decimal.Decimal `json:"investment_value"`
	CurrentValue decimal.Decimal `json:"current_value"`
	AvgPrice     decimal.Decimal `json:"avg_price"`
}

// PortfolioSummary is the quick dashboard view over executed orders.
type PortfolioSummary struct {
	CurrentValue    decimal.Decimal            `json:"current_value"`
	TotalInvestment decimal.Decimal            `json:"total_investment"`
	ReturnsPct      float64                    `json:"returns_percentage"`
	StockCount      int                        `json:"stock_count"`
	Holdings        map[string]*SummaryHolding `json:"holdings"`
}

// PortfolioMetrics is the complete metrics report.
type PortfolioMetrics struct {
	Stocks                []StockMetrics     `json:"stocks"`
	TotalInvestment       decimal.Decimal    `json:"total_investment"`
	CurrentValue          decimal.Decimal    `json:"current_value"`
	TotalReturns          decimal.Decimal    `json:"total_returns"`
	ReturnsPct            float64            `json:"returns_pct"`
	CAGR                  float64            `json:"cagr"`
	InvestmentPeriodDays  int                `json:"investment_period_days"`
	InvestmentPeriodYears float64            `json:"investment_period_years"`
	WeightedAvgReturn     float64            `json:"weighted_avg_return"`
	VolatilityScore       float64            `json:"volatility_score"`
	SharpeRatio           float64            `json:"sharpe_ratio"`
	BestPerformer         *PerformerRef      `json:"best_performer,omitempty"`
	WorstPerformer        *PerformerRef      `json:"worst_performer,omitempty"`
	Allocation            AllocationAnalysis `json:"allocation"`
	DegradedPrices        []string           `json:"degraded_prices,omitempty"`
}
