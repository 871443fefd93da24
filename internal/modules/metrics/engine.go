package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/modules/portfolio"
	"github.com/quantfolio/quantfolio/internal/utils"
)

const (
	// riskFreeRatePct feeds the Sharpe proxy.
	riskFreeRatePct = 6.0

	// rebalanceDeviationPct is the fixed drift threshold in percentage
	// points of average deviation from uniform target weights.
	rebalanceDeviationPct = 2.0

	// defaultHoldingDays stands in when a purchase date is missing.
	defaultHoldingDays = 30

	cagrMin = -99.9
	cagrMax = 999.9

	sharpeMin = -10.0
	sharpeMax = 10.0

	volatilityCap = 100.0
)

// Engine computes portfolio metrics. All methods are total functions:
// malformed inputs degrade to safe defaults and are logged, they never
// propagate a failure past the metrics boundary.
type Engine struct {
	log zerolog.Logger
	now func() time.Time
}

// NewEngine creates a new metrics engine
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log: log.With().Str("service", "metrics").Logger(),
		now: time.Now,
	}
}

// ComprehensiveMetrics values every holding at current prices and
// derives portfolio-level returns, a CAGR, risk proxies and an
// allocation drift analysis. Holdings without a current price are
// valued at cost basis and reported as degraded.
func (e *Engine) ComprehensiveMetrics(construction *portfolio.Construction, prices domain.PriceMap) *PortfolioMetrics {
	m := &PortfolioMetrics{
		TotalInvestment: decimal.Zero,
		CurrentValue:    decimal.Zero,
		TotalReturns:    decimal.Zero,
	}
	if construction == nil || len(construction.Holdings) == 0 {
		return m
	}

	now := e.now()

	symbols := make([]string, 0, len(construction.Holdings))
	for s := range construction.Holdings {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		h := construction.Holdings[symbol]

		currentPrice, ok := prices.Get(symbol)
		if !ok {
			// Cost basis stands in; never a zero or invented price
			currentPrice = h.AvgPrice
			m.DegradedPrices = append(m.DegradedPrices, symbol)
			e.log.Warn().
				Str("symbol", symbol).
				Msg("No current price, valuing holding at cost basis")
		}

		currentValue := currentPrice.Mul(decimal.NewFromInt(h.TotalShares))
		absReturn := currentValue.Sub(h.TotalInvestment)

		days, years := e.holdingPeriod(h.FirstPurchaseDate, now)
		pctReturn := safeReturnPct(h.TotalInvestment, currentValue)

		m.Stocks = append(m.Stocks, StockMetrics{
			Symbol:           symbol,
			Shares:           h.TotalShares,
			AvgPrice:         h.AvgPrice,
			CurrentPrice:     currentPrice,
			InvestmentValue:  h.TotalInvestment,
			CurrentValue:     currentValue,
			AbsoluteReturn:   absReturn,
			PercentageReturn: pctReturn,
			DaysHeld:         days,
			YearsHeld:        years,
			AnnualizedReturn: annualizedReturn(h.TotalInvestment, currentValue, years),
			FirstPurchase:    h.FirstPurchaseDate,
			TransactionCount: len(h.Transactions),
			PriceFallback:    !ok,
		})

		m.TotalInvestment = m.TotalInvestment.Add(h.TotalInvestment)
		m.CurrentValue = m.CurrentValue.Add(currentValue)
	}

	m.TotalReturns = m.CurrentValue.Sub(m.TotalInvestment)
	m.ReturnsPct = safeReturnPct(m.TotalInvestment, m.CurrentValue)

	m.InvestmentPeriodDays, m.InvestmentPeriodYears = e.holdingPeriod(construction.FirstOrderDate, now)
	m.CAGR = annualizedReturn(m.TotalInvestment, m.CurrentValue, m.InvestmentPeriodYears)

	e.fillAllocations(m)
	e.fillRiskAndRankings(m)

	e.log.Info().
		Int("holdings", len(m.Stocks)).
		Str("current_value", m.CurrentValue.StringFixed(2)).
		Float64("returns_pct", m.ReturnsPct).
		Bool("rebalancing_needed", m.Allocation.RebalancingNeeded).
		Msg("Portfolio metrics computed")

	return m
}

// Summary produces quick dashboard totals straight from the order
// ledger. Only EXECUTED orders count; pending or failed orders never
// move the numbers. Holdings without a supplied price are valued at
// cost basis. Orders are expected in ledger order (ascending IDs).
func (e *Engine) Summary(orders []domain.OrderRecord, prices domain.PriceMap) *PortfolioSummary {
	s := &PortfolioSummary{
		CurrentValue:    decimal.Zero,
		TotalInvestment: decimal.Zero,
		Holdings:        make(map[string]*SummaryHolding),
	}

	for _, o := range orders {
		if o.Status != domain.StatusExecuted {
			continue
		}

		h, ok := s.Holdings[o.Symbol]
		if !ok {
			h = &SummaryHolding{Symbol: o.Symbol}
			s.Holdings[o.Symbol] = h
		}

		switch o.Action {
		case domain.ActionBuy:
			h.Shares += o.Shares
			h.Investment = h.Investment.Add(o.EffectiveValue())
		case domain.ActionSell:
			if o.Shares > h.Shares {
				e.log.Warn().
					Str("symbol", o.Symbol).
					Int64("shares", o.Shares).
					Int64("held", h.Shares).
					Msg("Sell exceeds held shares, skipping in summary")
				continue
			}
			// Average cost leaves with the sold shares
			h.Investment = h.Investment.Sub(h.AvgPrice.Mul(decimal.NewFromInt(o.Shares)))
			h.Shares -= o.Shares
		default:
			continue
		}

		if h.Shares > 0 {
			h.AvgPrice = h.Investment.Div(decimal.NewFromInt(h.Shares))
		}
	}

	for symbol, h := range s.Holdings {
		if h.Shares <= 0 {
			delete(s.Holdings, symbol)
			continue
		}

		h.CurrentValue = h.Investment
		if price, ok := prices.Get(symbol); ok {
			h.CurrentValue = price.Mul(decimal.NewFromInt(h.Shares))
		}

		s.TotalInvestment = s.TotalInvestment.Add(h.Investment)
		s.CurrentValue = s.CurrentValue.Add(h.CurrentValue)
	}

	s.StockCount = len(s.Holdings)
	s.ReturnsPct = safeReturnPct(s.TotalInvestment, s.CurrentValue)

	return s
}

// holdingPeriod returns days/years since start, defaulting to 30 days
// when the start date is missing.
func (e *Engine) holdingPeriod(start time.Time, now time.Time) (int, float64) {
	if start.IsZero() {
		return defaultHoldingDays, float64(defaultHoldingDays) / 365.25
	}
	return utils.HoldingPeriod(start, now)
}

// fillAllocations weights each holding against the portfolio value and
// measures drift from the uniform target.
func (e *Engine) fillAllocations(m *PortfolioMetrics) {
	n := len(m.Stocks)
	if n == 0 {
		return
	}
	target := 100.0 / float64(n)

	pcts := make([]float64, n)
	totalDeviation := 0.0
	for i := range m.Stocks {
		pct := 0.0
		if m.CurrentValue.IsPositive() {
			f, _ := m.Stocks[i].CurrentValue.Div(m.CurrentValue).Float64()
			pct = f * 100
		}
		m.Stocks[i].AllocationPct = pct
		pcts[i] = pct
		totalDeviation += math.Abs(pct - target)
	}

	avgDeviation := totalDeviation / float64(n)
	m.Allocation = AllocationAnalysis{
		TargetPct:         target,
		MinPct:            floats.Min(pcts),
		MaxPct:            floats.Max(pcts),
		AvgPct:            stat.Mean(pcts, nil),
		AvgDeviation:      avgDeviation,
		RebalancingNeeded: avgDeviation > rebalanceDeviationPct,
	}
}

// fillRiskAndRankings computes the volatility/Sharpe proxies and the
// best/worst performer ranking.
func (e *Engine) fillRiskAndRankings(m *PortfolioMetrics) {
	if len(m.Stocks) == 0 {
		return
	}

	returns := make([]float64, len(m.Stocks))
	best, worst := 0, 0
	weightedSum := 0.0
	totalWeight, _ := m.TotalInvestment.Float64()
	for i, s := range m.Stocks {
		returns[i] = s.PercentageReturn
		if s.PercentageReturn > m.Stocks[best].PercentageReturn {
			best = i
		}
		if s.PercentageReturn < m.Stocks[worst].PercentageReturn {
			worst = i
		}
		w, _ := s.InvestmentValue.Float64()
		weightedSum += s.PercentageReturn * w
	}

	m.BestPerformer = &PerformerRef{Symbol: m.Stocks[best].Symbol, PercentageReturn: m.Stocks[best].PercentageReturn}
	m.WorstPerformer = &PerformerRef{Symbol: m.Stocks[worst].Symbol, PercentageReturn: m.Stocks[worst].PercentageReturn}

	if totalWeight > 0 {
		m.WeightedAvgReturn = weightedSum / totalWeight
	}

	// Cross-sectional dispersion of returns, not price-series
	// volatility. A deliberate proxy.
	if len(returns) > 1 {
		m.VolatilityScore = stat.StdDev(returns, nil)
		if m.VolatilityScore > volatilityCap {
			m.VolatilityScore = volatilityCap
		}
	}

	if m.VolatilityScore > 0 {
		m.SharpeRatio = clamp((m.ReturnsPct-riskFreeRatePct)/m.VolatilityScore, sharpeMin, sharpeMax)
	}
}

// safeReturnPct is (current - investment) / investment x 100, or 0
// when the investment is not positive.
func safeReturnPct(investment, current decimal.Decimal) float64 {
	if !investment.IsPositive() {
		return 0
	}
	f, _ := current.Sub(investment).Div(investment).Float64()
	return f * 100
}

// annualizedReturn is CAGR clamped to a displayable range. Periods
// under a year use simple annualization to avoid compounding noise;
// non-finite results fall back the same way.
func annualizedReturn(investment, current decimal.Decimal, years float64) float64 {
	if !investment.IsPositive() || !current.IsPositive() || years <= 0 {
		return 0
	}

	inv, _ := investment.Float64()
	cur, _ := current.Float64()

	var annualized float64
	if years < 1 {
		annualized = safeSimpleAnnualized(inv, cur, years)
	} else {
		annualized = (math.Pow(cur/inv, 1/years) - 1) * 100
		if math.IsNaN(annualized) || math.IsInf(annualized, 0) {
			annualized = safeSimpleAnnualized(inv, cur, years)
		}
	}

	return clamp(annualized, cagrMin, cagrMax)
}

func safeSimpleAnnualized(inv, cur, years float64) float64 {
	return (cur - inv) / inv * 100 / years
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
