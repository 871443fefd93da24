// Package domain contains the core types shared across the portfolio engine.
package domain

import (
	"github.com/shopspring/decimal"
)

// Action is the side of an order.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Valid reports whether the action is a known side.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// SessionType tags an order with the workflow that produced it.
type SessionType string

const (
	SessionInitialInvestment SessionType = "INITIAL_INVESTMENT"
	SessionRebalancing       SessionType = "REBALANCING"
)

// OrderStatus is the lifecycle state of a recorded order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusExecuted  OrderStatus = "EXECUTED"
	StatusFailed    OrderStatus = "FAILED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Valid reports whether the status is a known lifecycle state.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusExecuted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// StockQuote is a symbol with a current market price.
type StockQuote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// OrderRecord is a single row of the append-only order ledger.
// The ledger is the source of truth: portfolio state is always
// reconstructed by replaying these records in order.
type OrderRecord struct {
	OrderID           int64           `json:"order_id"`
	Symbol            string          `json:"symbol"`
	Action            Action          `json:"action"`
	Shares            int64           `json:"shares"`
	Price             decimal.Decimal `json:"price"`
	Value             decimal.Decimal `json:"value"`
	AllocationPercent float64         `json:"allocation_percent"`
	ExecutionTime     string          `json:"execution_time"`
	SessionType       SessionType     `json:"session_type"`
	Status            OrderStatus     `json:"status"`
}

// EffectiveValue returns the order's cash value, preferring the recorded
// value and falling back to shares x price when no value was supplied.
func (o OrderRecord) EffectiveValue() decimal.Decimal {
	if o.Value.IsPositive() {
		return o.Value
	}
	return o.Price.Mul(decimal.NewFromInt(o.Shares))
}

// PriceQuote is a point-in-time market price with optional day-change data.
type PriceQuote struct {
	Price         decimal.Decimal `json:"price"`
	Change        float64         `json:"change"`
	ChangePercent float64         `json:"change_percent"`
}

// PriceMap holds current prices keyed by symbol. Absence of a symbol
// means the price is unavailable; callers decide whether to fall back
// or exclude. Prices are never invented.
type PriceMap map[string]PriceQuote

// Get returns the price for a symbol and whether it is present.
func (m PriceMap) Get(symbol string) (decimal.Decimal, bool) {
	q, ok := m[symbol]
	if !ok || !q.Price.IsPositive() {
		return decimal.Zero, false
	}
	return q.Price, true
}
