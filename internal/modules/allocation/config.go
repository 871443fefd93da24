// Package allocation computes per-stock share allocations for a given
// investment amount, honoring min/target/max percentage bounds.
package allocation

import "github.com/shopspring/decimal"

// Config holds the allocation policy. Bounds are expressed in
// percentage points of the total investment amount.
type Config struct {
	// AnchorSymbol, when present in the stock list, receives a fixed
	// AnchorPct target and the remaining stocks share the rest equally.
	// With no anchor every stock targets 100/N.
	AnchorSymbol string
	AnchorPct    float64

	// FlexibilityPct widens each target into a [target-flex, target+flex]
	// band. The lower bound never drops below MinAllocationFloorPct.
	FlexibilityPct        float64
	MinAllocationFloorPct float64

	// BufferPct is added on top of the computed minimum investment to
	// produce the recommended minimum.
	BufferPct float64

	// Optimization loop controls. The loop stops when remaining cash
	// drops to MinCashThreshold, after MaxIterations, or when no move
	// brings any stock closer to its target.
	MaxIterations    int
	MinCashThreshold decimal.Decimal

	// When the best single move improves distance-to-target by less
	// than BulkPassTriggerPct percentage points, a bulk pass over the
	// top BulkPassWindow candidates buys as many shares as affordable
	// in one step to accelerate convergence.
	BulkPassTriggerPct float64
	BulkPassWindow     int
}

// DefaultConfig returns the standard allocation policy.
func DefaultConfig() Config {
	return Config{
		AnchorSymbol:          "GOLDBEES",
		AnchorPct:             50.0,
		FlexibilityPct:        2.0,
		MinAllocationFloorPct: 0.5,
		BufferPct:             20.0,
		MaxIterations:         20,
		MinCashThreshold:      decimal.NewFromInt(100),
		BulkPassTriggerPct:    0.1,
		BulkPassWindow:        3,
	}
}

// bounds is the resolved percentage band for one stock.
type bounds struct {
	target float64
	min    float64
	max    float64
}

// resolveBounds computes the per-symbol allocation band. When the
// anchor symbol is present it takes AnchorPct and the other stocks
// split the remainder equally; otherwise targets are uniform.
func (c Config) resolveBounds(symbols []string) map[string]bounds {
	out := make(map[string]bounds, len(symbols))
	if len(symbols) == 0 {
		return out
	}

	hasAnchor := false
	for _, s := range symbols {
		if s == c.AnchorSymbol {
			hasAnchor = true
			break
		}
	}

	for _, s := range symbols {
		var target float64
		switch {
		case hasAnchor && s == c.AnchorSymbol:
			target = c.AnchorPct
		case hasAnchor:
			target = (100.0 - c.AnchorPct) / float64(len(symbols)-1)
		default:
			target = 100.0 / float64(len(symbols))
		}

		minPct := target - c.FlexibilityPct
		if minPct < c.MinAllocationFloorPct {
			minPct = c.MinAllocationFloorPct
		}
		out[s] = bounds{
			target: target,
			min:    minPct,
			max:    target + c.FlexibilityPct,
		}
	}
	return out
}
