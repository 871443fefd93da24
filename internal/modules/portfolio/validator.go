package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
)

// Validation thresholds. The investment tolerance absorbs rounding in
// average-cost arithmetic; the price band flags suspicious feed data.
var (
	investmentTolerance = decimal.NewFromInt(1)
	plausiblePriceMin   = decimal.NewFromInt(1)
	plausiblePriceMax   = decimal.NewFromInt(50000)
)

// Validate cross-checks a construction for internal consistency.
// Warnings flag data-quality oddities; only impossible states (negative
// shares or investment) make the report invalid.
func (c *Constructor) Validate(construction *Construction) *ValidationReport {
	report := &ValidationReport{IsValid: true}

	totalInvestment := decimal.Zero
	var totalShares int64

	for symbol, h := range construction.Holdings {
		if h.TotalShares < 0 {
			report.IsValid = false
			report.Errors = append(report.Errors, fmt.Sprintf(
				"%s has negative share count %d", symbol, h.TotalShares))
		}
		if h.TotalInvestment.IsNegative() {
			report.IsValid = false
			report.Errors = append(report.Errors, fmt.Sprintf(
				"%s has negative investment %s", symbol, h.TotalInvestment.StringFixed(2)))
		}

		// avg_price x shares should reproduce total investment
		expected := h.AvgPrice.Mul(decimal.NewFromInt(h.TotalShares))
		if expected.Sub(h.TotalInvestment).Abs().GreaterThan(investmentTolerance) {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"%s investment %s does not match avg price x shares (%s)",
				symbol, h.TotalInvestment.StringFixed(2), expected.StringFixed(2)))
		}

		if h.AvgPrice.LessThan(plausiblePriceMin) || h.AvgPrice.GreaterThan(plausiblePriceMax) {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"%s average price %s is outside the plausible range [%s, %s]",
				symbol, h.AvgPrice.StringFixed(2),
				plausiblePriceMin.StringFixed(0), plausiblePriceMax.StringFixed(0)))
		}

		// Transaction history must account for the final share count
		var derived int64
		for _, tx := range h.Transactions {
			switch tx.Action {
			case domain.ActionBuy:
				derived += tx.Shares
			case domain.ActionSell:
				derived -= tx.Shares
			}
		}
		if derived != h.TotalShares {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"%s share count %d does not match transaction history (%d)",
				symbol, h.TotalShares, derived))
		}

		totalInvestment = totalInvestment.Add(h.TotalInvestment)
		totalShares += h.TotalShares
	}

	report.Summary = ValidationSummary{
		TotalHoldings:   len(construction.Holdings),
		TotalShares:     totalShares,
		TotalInvestment: totalInvestment,
	}
	if len(construction.Holdings) > 0 {
		report.Summary.AvgInvestmentPerStock = totalInvestment.Div(decimal.NewFromInt(int64(len(construction.Holdings))))
	} else {
		report.Summary.AvgInvestmentPerStock = decimal.Zero
	}

	if construction.TotalOrders > 0 {
		report.DataQuality.ProcessingSuccessRate = float64(construction.ProcessedOrders) / float64(construction.TotalOrders) * 100
	} else {
		report.DataQuality.ProcessingSuccessRate = 100
	}

	if !report.IsValid {
		c.log.Error().
			Strs("errors", report.Errors).
			Msg("Portfolio construction failed validation")
	} else if len(report.Warnings) > 0 {
		c.log.Warn().
			Strs("warnings", report.Warnings).
			Msg("Portfolio construction validated with warnings")
	}

	return report
}
