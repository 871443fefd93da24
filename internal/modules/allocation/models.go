package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
)

// StockRequirement is the cost of giving one stock its minimum
// allocation at a single share.
type StockRequirement struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	TargetPct     float64         `json:"target_pct"`
	MinPct        float64         `json:"min_pct"`
	MaxPct        float64         `json:"max_pct"`
	MinInvestment decimal.Decimal `json:"min_investment"`
	IsAnchor      bool            `json:"is_anchor"`
}

// MinInvestmentInfo describes the smallest workable investment amount
// for a stock list.
type MinInvestmentInfo struct {
	MinimumInvestment  decimal.Decimal    `json:"minimum_investment"`
	RecommendedMinimum decimal.Decimal    `json:"recommended_minimum"`
	BufferPct          float64            `json:"buffer_pct"`
	BindingStock       domain.StockQuote  `json:"binding_stock"`
	StockRequirements  []StockRequirement `json:"stock_requirements"`
}

// Entry is the allocation result for one stock.
type Entry struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Shares        int64           `json:"shares"`
	Value         decimal.Decimal `json:"value"`
	AllocationPct float64         `json:"allocation_pct"`
	TargetPct     float64         `json:"target_pct"`
	MinPct        float64         `json:"min_pct"`
	MaxPct        float64         `json:"max_pct"`
	MinShares     int64           `json:"min_shares"`
	MaxShares     int64           `json:"max_shares"`
	TargetMet     bool            `json:"target_met"`
	IsAnchor      bool            `json:"is_anchor"`
}

// Stats summarizes how tight the final allocation is.
type Stats struct {
	MinAllocationPct   float64 `json:"min_allocation_pct"`
	MaxAllocationPct   float64 `json:"max_allocation_pct"`
	AvgAllocationPct   float64 `json:"avg_allocation_pct"`
	StdDeviation       float64 `json:"std_deviation"`
	CloseToTargetCount int     `json:"close_to_target_count"`
	CloseToTargetPct   float64 `json:"close_to_target_pct"`
}

// Validation reports bound violations in the final allocation.
type Validation struct {
	AllValid       bool     `json:"all_valid"`
	StocksInRange  int      `json:"stocks_in_range"`
	StocksBelowMin int      `json:"stocks_below_min"`
	StocksAboveMax int      `json:"stocks_above_max"`
	SuccessRatePct float64  `json:"success_rate_pct"`
	Violations     []string `json:"violations,omitempty"`
}

// Summary is the complete result of an optimal-allocation run.
type Summary struct {
	TotalInvestment decimal.Decimal `json:"total_investment"`
	TotalAllocated  decimal.Decimal `json:"total_allocated"`
	RemainingCash   decimal.Decimal `json:"remaining_cash"`
	UtilizationPct  float64         `json:"utilization_pct"`
	Iterations      int             `json:"iterations"`
	Entries         []Entry         `json:"entries"`
	Stats           Stats           `json:"stats"`
	Validation      Validation      `json:"validation"`
}

// EntryFor returns the entry for a symbol, or nil when absent.
func (s *Summary) EntryFor(symbol string) *Entry {
	for i := range s.Entries {
		if s.Entries[i].Symbol == symbol {
			return &s.Entries[i]
		}
	}
	return nil
}
