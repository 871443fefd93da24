package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantfolio/internal/domain"
)

func TestValidateCleanConstruction(t *testing.T) {
	c := newTestConstructor()
	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(1, "ABC", domain.ActionBuy, 10, "100", "2025-01-01T10:00:00Z"),
		order(2, "DEF", domain.ActionBuy, 4, "250", "2025-01-02T10:00:00Z"),
	})

	report := c.Validate(construction)

	assert.True(t, report.IsValid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, 2, report.Summary.TotalHoldings)
	assert.Equal(t, int64(14), report.Summary.TotalShares)
	assert.True(t, report.Summary.TotalInvestment.Equal(decimal.NewFromInt(2000)))
	assert.True(t, report.Summary.AvgInvestmentPerStock.Equal(decimal.NewFromInt(1000)))
	assert.InDelta(t, 100.0, report.DataQuality.ProcessingSuccessRate, 1e-9)
}

func TestValidateFlagsImplausibleAvgPrice(t *testing.T) {
	c := newTestConstructor()
	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(1, "PENNY", domain.ActionBuy, 100, "0.50", "2025-01-01T10:00:00Z"),
	})

	report := c.Validate(construction)

	// Data-quality signal only: the report stays valid
	assert.True(t, report.IsValid)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "PENNY")
	assert.Contains(t, report.Warnings[0], "plausible range")
}

func TestValidateNegativeInvestmentIsHardError(t *testing.T) {
	c := newTestConstructor()
	construction := &Construction{
		Holdings: map[string]*Holding{
			"BAD": {
				Symbol:          "BAD",
				TotalShares:     5,
				TotalInvestment: decimal.NewFromInt(-100),
				AvgPrice:        decimal.NewFromInt(-20),
			},
		},
		TotalOrders:     1,
		ProcessedOrders: 1,
	}

	report := c.Validate(construction)

	assert.False(t, report.IsValid)
	assert.NotEmpty(t, report.Errors)
}

func TestValidateSuccessRateReflectsSkippedOrders(t *testing.T) {
	c := newTestConstructor()
	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(1, "ABC", domain.ActionBuy, 10, "100", "2025-01-01T10:00:00Z"),
		order(2, "ABC", domain.ActionSell, 99, "100", "2025-02-01T10:00:00Z"),
		order(3, "ABC", domain.ActionBuy, 0, "100", "2025-03-01T10:00:00Z"),
		order(4, "ABC", domain.ActionBuy, 5, "100", "2025-04-01T10:00:00Z"),
	})

	report := c.Validate(construction)

	assert.True(t, report.IsValid)
	assert.InDelta(t, 50.0, report.DataQuality.ProcessingSuccessRate, 1e-9)
}

func TestValidateEmptyConstruction(t *testing.T) {
	c := newTestConstructor()
	report := c.Validate(c.ConstructFromOrders(nil))

	assert.True(t, report.IsValid)
	assert.Equal(t, 0, report.Summary.TotalHoldings)
	assert.InDelta(t, 100.0, report.DataQuality.ProcessingSuccessRate, 1e-9)
}
