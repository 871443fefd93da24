package allocation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfolio/quantfolio/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// boundsTolerance absorbs float noise when checking percentage bounds.
const boundsTolerance = 1e-6

// targetMetTolerance is the band, in percentage points, within which an
// allocation counts as having met its target.
const targetMetTolerance = 0.5

// Calculator computes minimum investments and optimal share allocations
type Calculator struct {
	cfg Config
	log zerolog.Logger
}

// NewCalculator creates a new allocation calculator
func NewCalculator(cfg Config, log zerolog.Logger) *Calculator {
	return &Calculator{
		cfg: cfg,
		log: log.With().Str("service", "allocation").Logger(),
	}
}

// MinimumInvestment computes the smallest amount for which every stock
// can receive at least one share at its minimum allocation percentage.
// Each stock needs price x (100 / min_pct); the largest of those is the
// binding constraint.
func (c *Calculator) MinimumInvestment(stocks []domain.StockQuote) (*MinInvestmentInfo, error) {
	if err := validateStocks(stocks); err != nil {
		return nil, err
	}

	bds := c.cfg.resolveBounds(symbolsOf(stocks))

	requirements := make([]StockRequirement, 0, len(stocks))
	for _, s := range stocks {
		b := bds[s.Symbol]
		requirements = append(requirements, StockRequirement{
			Symbol:        s.Symbol,
			Price:         s.Price,
			TargetPct:     b.target,
			MinPct:        b.min,
			MaxPct:        b.max,
			MinInvestment: s.Price.Mul(hundred).Div(decimal.NewFromFloat(b.min)),
			IsAnchor:      s.Symbol == c.cfg.AnchorSymbol,
		})
	}

	// With an anchor in play the bands are heterogeneous, so the
	// priciest quote is not necessarily the binding stock: its wide
	// minimum band may need less total than a cheaper stock's narrow
	// one.
	binding := 0
	for i := range requirements {
		if requirements[i].MinInvestment.GreaterThan(requirements[binding].MinInvestment) {
			binding = i
		}
	}
	minimum := requirements[binding].MinInvestment
	recommended := minimum.Mul(decimal.NewFromFloat(1 + c.cfg.BufferPct/100))

	c.log.Debug().
		Str("binding", stocks[binding].Symbol).
		Str("minimum", minimum.StringFixed(2)).
		Int("stocks", len(stocks)).
		Msg("Calculated minimum investment")

	return &MinInvestmentInfo{
		MinimumInvestment:  minimum,
		RecommendedMinimum: recommended,
		BufferPct:          c.cfg.BufferPct,
		BindingStock:       stocks[binding],
		StockRequirements:  requirements,
	}, nil
}

// CheckMinimum returns a BelowMinimumInvestmentError when the amount
// cannot satisfy every stock's minimum allocation.
func (c *Calculator) CheckMinimum(amount decimal.Decimal, stocks []domain.StockQuote) error {
	info, err := c.MinimumInvestment(stocks)
	if err != nil {
		return err
	}
	if amount.LessThan(info.MinimumInvestment) {
		return &domain.BelowMinimumInvestmentError{
			Requested: amount,
			Minimum:   info.MinimumInvestment,
		}
	}
	return nil
}

// OptimalAllocation distributes an investment amount across the given
// stocks in whole shares. Phase 1 seeds every stock at its clamped
// target share count; phase 2 greedily spends remaining cash on the
// move that most reduces distance to target.
func (c *Calculator) OptimalAllocation(amount decimal.Decimal, stocks []domain.StockQuote) (*Summary, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", domain.ErrInvalidInput, amount)
	}
	if err := validateStocks(stocks); err != nil {
		return nil, err
	}

	bds := c.cfg.resolveBounds(symbolsOf(stocks))

	// Phase 1: seed at clamped target shares
	entries := make([]Entry, 0, len(stocks))
	totalAllocated := decimal.Zero
	for _, s := range stocks {
		b := bds[s.Symbol]

		minValue := amount.Mul(decimal.NewFromFloat(b.min)).Div(hundred)
		minShares := minValue.Div(s.Price).Ceil().IntPart()
		if minShares < 1 {
			minShares = 1
		}
		maxValue := amount.Mul(decimal.NewFromFloat(b.max)).Div(hundred)
		maxShares := maxValue.Div(s.Price).Floor().IntPart()

		targetValue := amount.Mul(decimal.NewFromFloat(b.target)).Div(hundred)
		shares := targetValue.Div(s.Price).Floor().IntPart()
		if shares > maxShares {
			shares = maxShares
		}
		if shares < minShares {
			// The minimum bound wins when a pricey stock cannot fit
			// inside its band at whole shares.
			shares = minShares
		}

		value := s.Price.Mul(decimal.NewFromInt(shares))
		totalAllocated = totalAllocated.Add(value)
		entries = append(entries, Entry{
			Symbol:    s.Symbol,
			Price:     s.Price,
			Shares:    shares,
			Value:     value,
			TargetPct: b.target,
			MinPct:    b.min,
			MaxPct:    b.max,
			MinShares: minShares,
			MaxShares: maxShares,
			IsAnchor:  s.Symbol == c.cfg.AnchorSymbol,
		})
	}

	remaining := amount.Sub(totalAllocated)
	for i := range entries {
		entries[i].AllocationPct = pctOf(entries[i].Value, amount)
	}

	// Phase 2: iterative improvement
	iterations := c.optimize(entries, bds, amount, &remaining)

	totalAllocated = decimal.Zero
	for i := range entries {
		e := &entries[i]
		e.AllocationPct = pctOf(e.Value, amount)
		e.TargetMet = math.Abs(e.AllocationPct-e.TargetPct) <= targetMetTolerance
		totalAllocated = totalAllocated.Add(e.Value)
	}

	summary := &Summary{
		TotalInvestment: amount,
		TotalAllocated:  totalAllocated,
		RemainingCash:   remaining,
		UtilizationPct:  pctOf(totalAllocated, amount),
		Iterations:      iterations,
		Entries:         entries,
		Stats:           calculateStats(entries),
		Validation:      validateEntries(entries),
	}

	c.log.Info().
		Str("amount", amount.StringFixed(2)).
		Str("allocated", totalAllocated.StringFixed(2)).
		Str("remaining", remaining.StringFixed(2)).
		Int("iterations", iterations).
		Bool("all_valid", summary.Validation.AllValid).
		Msg("Optimal allocation computed")

	return summary, nil
}

// candidate is one possible cash-spending move during optimization.
type candidate struct {
	idx         int
	sharesToAdd int64
	addValue    decimal.Decimal
	improvement float64
}

// optimize spends remaining cash one best move at a time. Each applied
// move strictly reduces that stock's distance to target, so the total
// distance across stocks never increases. Returns the iteration count.
func (c *Calculator) optimize(entries []Entry, bds map[string]bounds, amount decimal.Decimal, remaining *decimal.Decimal) int {
	apply := func(idx int, shares int64) {
		e := &entries[idx]
		addValue := e.Price.Mul(decimal.NewFromInt(shares))
		e.Shares += shares
		e.Value = e.Value.Add(addValue)
		e.AllocationPct = pctOf(e.Value, amount)
		*remaining = remaining.Sub(addValue)
	}

	iterations := 0
	for remaining.GreaterThan(c.cfg.MinCashThreshold) && iterations < c.cfg.MaxIterations {
		iterations++

		var candidates []candidate
		for i := range entries {
			e := &entries[i]
			b := bds[e.Symbol]

			maxValue := amount.Mul(decimal.NewFromFloat(b.max)).Div(hundred)
			headroom := maxValue.Sub(e.Value)
			if headroom.LessThanOrEqual(e.Price) {
				continue
			}

			maxAdd := headroom.Div(e.Price).Floor().IntPart()
			affordable := remaining.Div(e.Price).Floor().IntPart()
			possible := min(maxAdd, affordable)
			if possible <= 0 {
				continue
			}

			addValue := e.Price.Mul(decimal.NewFromInt(possible))
			curDist := math.Abs(e.AllocationPct - b.target)
			newDist := math.Abs(pctOf(e.Value.Add(addValue), amount) - b.target)
			if newDist >= curDist {
				continue
			}
			candidates = append(candidates, candidate{
				idx:         i,
				sharesToAdd: possible,
				addValue:    addValue,
				improvement: curDist - newDist,
			})
		}

		if len(candidates) == 0 {
			break
		}

		// Best improvement wins, first found on ties
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].improvement > candidates[b].improvement
		})
		best := candidates[0]
		apply(best.idx, best.sharesToAdd)

		// When single moves barely help, spend a chunk at once on one
		// of the top candidates so convergence does not stall.
		if best.improvement < c.cfg.BulkPassTriggerPct {
			window := c.cfg.BulkPassWindow
			if window > len(candidates) {
				window = len(candidates)
			}
			for _, cand := range candidates[:window] {
				price := entries[cand.idx].Price
				if remaining.LessThan(price.Mul(decimal.NewFromInt(2))) {
					continue
				}
				bulk := min(remaining.Div(price).Floor().IntPart(), cand.sharesToAdd)
				if bulk > 1 {
					apply(cand.idx, bulk)
					break
				}
			}
		}
	}

	return iterations
}

func calculateStats(entries []Entry) Stats {
	if len(entries) == 0 {
		return Stats{}
	}

	pcts := make([]float64, len(entries))
	closeCount := 0
	for i, e := range entries {
		pcts[i] = e.AllocationPct
		if math.Abs(e.AllocationPct-e.TargetPct) <= targetMetTolerance {
			closeCount++
		}
	}

	stdDev := 0.0
	if len(pcts) > 1 {
		stdDev = stat.StdDev(pcts, nil)
	}

	return Stats{
		MinAllocationPct:   floats.Min(pcts),
		MaxAllocationPct:   floats.Max(pcts),
		AvgAllocationPct:   stat.Mean(pcts, nil),
		StdDeviation:       stdDev,
		CloseToTargetCount: closeCount,
		CloseToTargetPct:   float64(closeCount) / float64(len(entries)) * 100,
	}
}

func validateEntries(entries []Entry) Validation {
	v := Validation{}
	for _, e := range entries {
		switch {
		case e.AllocationPct < e.MinPct-boundsTolerance:
			v.StocksBelowMin++
			v.Violations = append(v.Violations, fmt.Sprintf(
				"%s allocation %.2f%% is below minimum %.2f%%", e.Symbol, e.AllocationPct, e.MinPct))
		case e.AllocationPct > e.MaxPct+boundsTolerance:
			v.StocksAboveMax++
			v.Violations = append(v.Violations, fmt.Sprintf(
				"%s allocation %.2f%% is above maximum %.2f%%", e.Symbol, e.AllocationPct, e.MaxPct))
		default:
			v.StocksInRange++
		}
	}
	v.AllValid = len(v.Violations) == 0
	if len(entries) > 0 {
		v.SuccessRatePct = float64(v.StocksInRange) / float64(len(entries)) * 100
	}
	return v
}

func validateStocks(stocks []domain.StockQuote) error {
	if len(stocks) == 0 {
		return fmt.Errorf("%w: empty stock list", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(stocks))
	for _, s := range stocks {
		if strings.TrimSpace(s.Symbol) == "" {
			return fmt.Errorf("%w: empty symbol in stock list", domain.ErrInvalidInput)
		}
		if !s.Price.IsPositive() {
			return fmt.Errorf("%w: non-positive price for %s", domain.ErrInvalidInput, s.Symbol)
		}
		if seen[s.Symbol] {
			return fmt.Errorf("%w: duplicate symbol %s", domain.ErrInvalidInput, s.Symbol)
		}
		seen[s.Symbol] = true
	}
	return nil
}

func symbolsOf(stocks []domain.StockQuote) []string {
	out := make([]string, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, s.Symbol)
	}
	return out
}

func pctOf(value, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	f, _ := value.Div(total).Float64()
	return f * 100
}
