package metrics

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/modules/portfolio"
)

var testNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	e := NewEngine(zerolog.Nop())
	e.now = func() time.Time { return testNow }
	return e
}

func holding(symbol string, shares int64, avgPrice string, firstPurchase time.Time) *portfolio.Holding {
	avg := decimal.RequireFromString(avgPrice)
	return &portfolio.Holding{
		Symbol:            symbol,
		TotalShares:       shares,
		AvgPrice:          avg,
		TotalInvestment:   avg.Mul(decimal.NewFromInt(shares)),
		FirstPurchaseDate: firstPurchase,
		Transactions:      []portfolio.Transaction{{Action: domain.ActionBuy, Shares: shares, Price: avg}},
	}
}

func construction(holdings ...*portfolio.Holding) *portfolio.Construction {
	c := &portfolio.Construction{Holdings: make(map[string]*portfolio.Holding)}
	for _, h := range holdings {
		c.Holdings[h.Symbol] = h
		if c.FirstOrderDate.IsZero() || h.FirstPurchaseDate.Before(c.FirstOrderDate) {
			c.FirstOrderDate = h.FirstPurchaseDate
		}
	}
	return c
}

func prices(pairs map[string]string) domain.PriceMap {
	out := make(domain.PriceMap)
	for symbol, price := range pairs {
		out[symbol] = domain.PriceQuote{Price: decimal.RequireFromString(price)}
	}
	return out
}

func TestComprehensiveMetricsEmpty(t *testing.T) {
	e := newTestEngine()

	m := e.ComprehensiveMetrics(nil, nil)
	assert.Empty(t, m.Stocks)
	assert.True(t, m.TotalInvestment.IsZero())

	m = e.ComprehensiveMetrics(&portfolio.Construction{Holdings: map[string]*portfolio.Holding{}}, nil)
	assert.Empty(t, m.Stocks)
}

func TestComprehensiveMetricsBasic(t *testing.T) {
	e := newTestEngine()
	start := testNow.AddDate(-1, 0, 0)

	c := construction(
		holding("A", 10, "100", start), // invested 1000
		holding("B", 4, "250", start),  // invested 1000
	)
	m := e.ComprehensiveMetrics(c, prices(map[string]string{
		"A": "150", // now 1500, +50%
		"B": "200", // now 800,  -20%
	}))

	require.Len(t, m.Stocks, 2)
	assert.True(t, m.TotalInvestment.Equal(decimal.NewFromInt(2000)))
	assert.True(t, m.CurrentValue.Equal(decimal.NewFromInt(2300)))
	assert.True(t, m.TotalReturns.Equal(decimal.NewFromInt(300)))
	assert.InDelta(t, 15.0, m.ReturnsPct, 1e-9)
	assert.Empty(t, m.DegradedPrices)

	a := m.Stocks[0] // sorted by symbol
	assert.Equal(t, "A", a.Symbol)
	assert.InDelta(t, 50.0, a.PercentageReturn, 1e-9)
	assert.InDelta(t, 1500.0/2300*100, a.AllocationPct, 1e-9)

	require.NotNil(t, m.BestPerformer)
	assert.Equal(t, "A", m.BestPerformer.Symbol)
	require.NotNil(t, m.WorstPerformer)
	assert.Equal(t, "B", m.WorstPerformer.Symbol)

	// Weighted by equal investments: (50 - 20) / 2
	assert.InDelta(t, 15.0, m.WeightedAvgReturn, 1e-9)
}

func TestComprehensiveMetricsPriceFallback(t *testing.T) {
	e := newTestEngine()
	c := construction(holding("A", 10, "100", testNow.AddDate(0, -6, 0)))

	m := e.ComprehensiveMetrics(c, prices(map[string]string{}))

	require.Len(t, m.Stocks, 1)
	s := m.Stocks[0]
	assert.True(t, s.PriceFallback)
	assert.True(t, s.CurrentPrice.Equal(s.AvgPrice), "fallback is cost basis, never zero")
	assert.InDelta(t, 0.0, s.PercentageReturn, 1e-9)
	assert.Equal(t, []string{"A"}, m.DegradedPrices)
}

func TestCAGROneYearDouble(t *testing.T) {
	e := newTestEngine()
	start := testNow.AddDate(-1, 0, 0)
	c := construction(holding("A", 10, "100", start))

	m := e.ComprehensiveMetrics(c, prices(map[string]string{"A": "200"}))

	// 366 days (2024 leap) is just over a year; CAGR of a double stays
	// close to 100%
	assert.InDelta(t, 100.0, m.CAGR, 1.0)
	assert.Equal(t, 366, m.InvestmentPeriodDays)
}

func TestCAGRSubYearUsesSimpleAnnualization(t *testing.T) {
	// Half a year at +10% annualizes to roughly +20% simple, without
	// compounding
	got := annualizedReturn(decimal.NewFromInt(1000), decimal.NewFromInt(1100), 0.5)
	assert.InDelta(t, 20.0, got, 1e-9)
}

func TestCAGRClamped(t *testing.T) {
	// Ridiculous gain over a short period clamps at the display cap
	got := annualizedReturn(decimal.NewFromInt(1), decimal.NewFromInt(10000), 0.01)
	assert.InDelta(t, 999.9, got, 1e-9)

	// Near-total loss clamps at the floor
	got = annualizedReturn(decimal.NewFromInt(10000), decimal.NewFromInt(1), 0.01)
	assert.InDelta(t, -99.9, got, 1e-9)

	// Degenerate inputs are total-function safe
	assert.Equal(t, 0.0, annualizedReturn(decimal.Zero, decimal.NewFromInt(10), 1))
	assert.Equal(t, 0.0, annualizedReturn(decimal.NewFromInt(10), decimal.Zero, 1))
	assert.Equal(t, 0.0, annualizedReturn(decimal.NewFromInt(10), decimal.NewFromInt(10), 0))
}

func TestMissingPurchaseDateDefaultsTo30Days(t *testing.T) {
	e := newTestEngine()
	c := construction(holding("A", 10, "100", time.Time{}))

	m := e.ComprehensiveMetrics(c, prices(map[string]string{"A": "110"}))

	require.Len(t, m.Stocks, 1)
	assert.Equal(t, defaultHoldingDays, m.Stocks[0].DaysHeld)
	assert.Equal(t, defaultHoldingDays, m.InvestmentPeriodDays)
}

func TestSingleHoldingHasNoVolatility(t *testing.T) {
	e := newTestEngine()
	c := construction(holding("A", 10, "100", testNow.AddDate(-1, 0, 0)))

	m := e.ComprehensiveMetrics(c, prices(map[string]string{"A": "150"}))

	assert.Equal(t, 0.0, m.VolatilityScore)
	assert.Equal(t, 0.0, m.SharpeRatio, "Sharpe must be 0 when volatility is 0")
}

func TestSharpeRatioClamped(t *testing.T) {
	e := newTestEngine()
	start := testNow.AddDate(-1, 0, 0)
	// Two nearly identical returns give tiny dispersion and a huge raw
	// Sharpe value
	c := construction(
		holding("A", 10, "100", start),
		holding("B", 10, "100", start),
	)
	m := e.ComprehensiveMetrics(c, prices(map[string]string{
		"A": "150",
		"B": "150.01",
	}))

	assert.GreaterOrEqual(t, m.SharpeRatio, sharpeMin)
	assert.LessOrEqual(t, m.SharpeRatio, sharpeMax)
	assert.InDelta(t, sharpeMax, m.SharpeRatio, 1e-9)
}

func TestRebalancingDeviationGate(t *testing.T) {
	e := newTestEngine()
	start := testNow.AddDate(-1, 0, 0)

	// Balanced: both at 50%, deviation 0
	balanced := construction(
		holding("A", 10, "100", start),
		holding("B", 10, "100", start),
	)
	m := e.ComprehensiveMetrics(balanced, prices(map[string]string{"A": "100", "B": "100"}))
	assert.InDelta(t, 50.0, m.Allocation.TargetPct, 1e-9)
	assert.False(t, m.Allocation.RebalancingNeeded)

	// Skewed: 75/25 against a 50/50 target, deviation 25pp
	skewed := construction(
		holding("A", 30, "100", start),
		holding("B", 10, "100", start),
	)
	m = e.ComprehensiveMetrics(skewed, prices(map[string]string{"A": "100", "B": "100"}))
	assert.InDelta(t, 25.0, m.Allocation.AvgDeviation, 1e-9)
	assert.True(t, m.Allocation.RebalancingNeeded)
}

func order(symbol string, action domain.Action, shares int64, price string, status domain.OrderStatus) domain.OrderRecord {
	p := decimal.RequireFromString(price)
	return domain.OrderRecord{
		Symbol: symbol,
		Action: action,
		Shares: shares,
		Price:  p,
		Status: status,
	}
}

func TestSummaryCountsExecutedOrdersOnly(t *testing.T) {
	e := newTestEngine()

	s := e.Summary([]domain.OrderRecord{
		order("A", domain.ActionBuy, 10, "100", domain.StatusExecuted),
		order("B", domain.ActionBuy, 5, "100", domain.StatusPending),
		order("C", domain.ActionBuy, 5, "100", domain.StatusFailed),
	}, nil)

	assert.Equal(t, 1, s.StockCount)
	require.Contains(t, s.Holdings, "A")
	assert.True(t, s.TotalInvestment.Equal(decimal.NewFromInt(1000)))

	// No prices supplied: cost basis throughout, zero return
	assert.True(t, s.CurrentValue.Equal(s.TotalInvestment))
	assert.InDelta(t, 0.0, s.ReturnsPct, 1e-9)
}

func TestSummaryWithPrices(t *testing.T) {
	e := newTestEngine()

	s := e.Summary([]domain.OrderRecord{
		order("A", domain.ActionBuy, 10, "100", domain.StatusExecuted),
	}, prices(map[string]string{"A": "150"}))

	require.Contains(t, s.Holdings, "A")
	assert.True(t, s.Holdings["A"].CurrentValue.Equal(decimal.NewFromInt(1500)))
	assert.True(t, s.CurrentValue.Equal(decimal.NewFromInt(1500)))
	assert.InDelta(t, 50.0, s.ReturnsPct, 1e-9)
}

func TestSummarySellPreservesCostBasis(t *testing.T) {
	e := newTestEngine()

	s := e.Summary([]domain.OrderRecord{
		order("A", domain.ActionBuy, 10, "100", domain.StatusExecuted),
		order("A", domain.ActionSell, 4, "120", domain.StatusExecuted),
	}, nil)

	require.Contains(t, s.Holdings, "A")
	h := s.Holdings["A"]
	assert.Equal(t, int64(6), h.Shares)
	assert.True(t, h.Investment.Equal(decimal.NewFromInt(600)))
	assert.True(t, h.AvgPrice.Equal(decimal.NewFromInt(100)))
}

func TestSummaryDropsClosedAndSkipsOversell(t *testing.T) {
	e := newTestEngine()

	s := e.Summary([]domain.OrderRecord{
		order("A", domain.ActionBuy, 10, "100", domain.StatusExecuted),
		order("A", domain.ActionSell, 10, "120", domain.StatusExecuted),
		order("B", domain.ActionBuy, 2, "50", domain.StatusExecuted),
		order("B", domain.ActionSell, 5, "60", domain.StatusExecuted), // exceeds held
	}, nil)

	assert.NotContains(t, s.Holdings, "A", "closed positions are dropped")
	require.Contains(t, s.Holdings, "B")
	assert.Equal(t, int64(2), s.Holdings["B"].Shares, "oversell is ignored")
	assert.Equal(t, 1, s.StockCount)
}

func TestSummaryEmptyLedger(t *testing.T) {
	e := newTestEngine()

	s := e.Summary(nil, nil)
	assert.Equal(t, 0, s.StockCount)
	assert.Empty(t, s.Holdings)
	assert.True(t, s.TotalInvestment.IsZero())
	assert.InDelta(t, 0.0, s.ReturnsPct, 1e-9)
}
