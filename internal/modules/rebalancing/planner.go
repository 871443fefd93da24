package rebalancing

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/modules/allocation"
	"github.com/quantfolio/quantfolio/internal/modules/portfolio"
)

// Planner computes rebalancing plans against a target universe
type Planner struct {
	calc *allocation.Calculator
	log  zerolog.Logger
}

// NewPlanner creates a new rebalancing planner
func NewPlanner(calc *allocation.Calculator, log zerolog.Logger) *Planner {
	return &Planner{
		calc: calc,
		log:  log.With().Str("service", "rebalancing").Logger(),
	}
}

// CheckNeeded compares the held symbols against the target universe.
// Rebalancing is needed iff membership differs; weight drift is the
// metrics engine's concern, not this gate's.
func (p *Planner) CheckNeeded(currentSymbols, targetSymbols []string) Need {
	current := toSet(currentSymbols)
	target := toSet(targetSymbols)

	need := Need{}
	for s := range target {
		if !current[s] {
			need.NewStocks = append(need.NewStocks, s)
		} else {
			need.CommonStocks = append(need.CommonStocks, s)
		}
	}
	for s := range current {
		if !target[s] {
			need.RemovedStocks = append(need.RemovedStocks, s)
		}
	}
	sort.Strings(need.NewStocks)
	sort.Strings(need.RemovedStocks)
	sort.Strings(need.CommonStocks)

	need.Needed = len(need.NewStocks) > 0 || len(need.RemovedStocks) > 0
	return need
}

// CalculatePlan derives a full rebalancing proposal: the portfolio's
// current value plus any additional investment is re-allocated from
// scratch across the target universe, and orders are generated from
// the membership diff. This is target-state recomputation, not a
// delta-minimizing rebalance.
func (p *Planner) CalculatePlan(
	holdings map[string]*portfolio.Holding,
	prices domain.PriceMap,
	targetUniverse []domain.StockQuote,
	additionalInvestment decimal.Decimal,
) (*Plan, error) {
	if len(holdings) == 0 {
		return nil, fmt.Errorf("cannot plan rebalancing: %w", domain.ErrNoHoldings)
	}
	if len(targetUniverse) == 0 {
		return nil, fmt.Errorf("cannot plan rebalancing: %w", domain.ErrNoTargetUniverse)
	}
	if additionalInvestment.IsNegative() {
		return nil, fmt.Errorf("%w: additional investment must not be negative", domain.ErrInvalidInput)
	}

	plan := &Plan{PlanID: uuid.NewString()}

	// 1. Value current positions, falling back to cost basis when a
	// price is missing
	currentValue := decimal.Zero
	currentSymbols := make([]string, 0, len(holdings))
	for symbol, h := range holdings {
		currentSymbols = append(currentSymbols, symbol)
		price, ok := prices.Get(symbol)
		if !ok {
			price = h.AvgPrice
			plan.DegradedPrices = append(plan.DegradedPrices, symbol)
			p.log.Warn().
				Str("symbol", symbol).
				Msg("No current price for valuation, using cost basis")
		}
		currentValue = currentValue.Add(price.Mul(decimal.NewFromInt(h.TotalShares)))
	}
	sort.Strings(plan.DegradedPrices)

	targetSymbols := make([]string, 0, len(targetUniverse))
	for _, q := range targetUniverse {
		targetSymbols = append(targetSymbols, q.Symbol)
	}
	plan.Need = p.CheckNeeded(currentSymbols, targetSymbols)

	totalValue := currentValue.Add(additionalInvestment)
	plan.Summary = PlanSummary{
		CurrentPortfolioValue: currentValue,
		AdditionalInvestment:  additionalInvestment,
		TotalRebalancingValue: totalValue,
		TotalBuyValue:         decimal.Zero,
		TotalSellValue:        decimal.Zero,
		NetInvestmentNeeded:   decimal.Zero,
		RemainingCash:         decimal.Zero,
		TotalStocks:           len(targetUniverse),
	}

	// 2. Short-circuit when membership matches and no fresh money
	if !plan.Need.Needed && additionalInvestment.IsZero() {
		p.log.Info().Str("plan_id", plan.PlanID).Msg("Universe unchanged and no new money, empty plan")
		return plan, nil
	}

	// 3. Fresh target allocation over the whole universe
	summary, err := p.calc.OptimalAllocation(totalValue, targetUniverse)
	if err != nil {
		return nil, fmt.Errorf("failed to compute target allocation: %w", err)
	}
	plan.Allocation = summary
	plan.Summary.RemainingCash = summary.RemainingCash

	// 4. Orders from the membership diff
	for _, symbol := range plan.Need.NewStocks {
		entry := summary.EntryFor(symbol)
		if entry == nil || entry.Shares <= 0 {
			continue
		}
		plan.BuyOrders = append(plan.BuyOrders, PlannedOrder{
			Symbol: symbol,
			Action: domain.ActionBuy,
			Shares: entry.Shares,
			Price:  entry.Price,
			Value:  entry.Value,
			Reason: "new stock added to universe",
		})
	}

	for _, symbol := range plan.Need.RemovedStocks {
		h := holdings[symbol]
		price, ok := prices.Get(symbol)
		if !ok {
			price = h.AvgPrice
		}
		plan.SellOrders = append(plan.SellOrders, PlannedOrder{
			Symbol: symbol,
			Action: domain.ActionSell,
			Shares: h.TotalShares,
			Price:  price,
			Value:  price.Mul(decimal.NewFromInt(h.TotalShares)),
			Reason: "stock removed from universe",
		})
	}

	// Fresh money tops up retained positions evenly, a deliberate
	// simplification over proportional top-up
	if additionalInvestment.IsPositive() && len(plan.Need.CommonStocks) > 0 {
		perStock := additionalInvestment.Div(decimal.NewFromInt(int64(len(plan.Need.CommonStocks))))
		for _, symbol := range plan.Need.CommonStocks {
			entry := summary.EntryFor(symbol)
			if entry == nil || !entry.Price.IsPositive() {
				continue
			}
			shares := perStock.Div(entry.Price).Floor().IntPart()
			if shares <= 0 {
				continue
			}
			plan.BuyOrders = append(plan.BuyOrders, PlannedOrder{
				Symbol: symbol,
				Action: domain.ActionBuy,
				Shares: shares,
				Price:  entry.Price,
				Value:  entry.Price.Mul(decimal.NewFromInt(shares)),
				Reason: "additional investment distribution",
			})
		}
	}

	for _, o := range plan.BuyOrders {
		plan.Summary.TotalBuyValue = plan.Summary.TotalBuyValue.Add(o.Value)
	}
	for _, o := range plan.SellOrders {
		plan.Summary.TotalSellValue = plan.Summary.TotalSellValue.Add(o.Value)
	}
	plan.Summary.NetInvestmentNeeded = plan.Summary.TotalBuyValue.Sub(plan.Summary.TotalSellValue)
	plan.Summary.BuyOrdersCount = len(plan.BuyOrders)
	plan.Summary.SellOrdersCount = len(plan.SellOrders)
	plan.Summary.RebalancingNeeded = len(plan.BuyOrders) > 0 || len(plan.SellOrders) > 0

	p.log.Info().
		Str("plan_id", plan.PlanID).
		Int("buy_orders", len(plan.BuyOrders)).
		Int("sell_orders", len(plan.SellOrders)).
		Str("net_investment", plan.Summary.NetInvestmentNeeded.StringFixed(2)).
		Msg("Rebalancing plan calculated")

	return plan, nil
}

func toSet(symbols []string) map[string]bool {
	out := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		out[s] = true
	}
	return out
}
