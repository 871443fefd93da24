package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantfolio/internal/domain"
)

func newTestConstructor() *Constructor {
	c := NewConstructor(zerolog.Nop())
	c.now = func() time.Time {
		return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	return c
}

func order(id int64, symbol string, action domain.Action, shares int64, price, execTime string) domain.OrderRecord {
	return domain.OrderRecord{
		OrderID:       id,
		Symbol:        symbol,
		Action:        action,
		Shares:        shares,
		Price:         decimal.RequireFromString(price),
		ExecutionTime: execTime,
		SessionType:   domain.SessionInitialInvestment,
		Status:        domain.StatusExecuted,
	}
}

func TestConstructEmptyLedger(t *testing.T) {
	c := newTestConstructor()
	construction := c.ConstructFromOrders(nil)

	assert.Empty(t, construction.Holdings)
	assert.Empty(t, construction.Timeline)
	assert.Equal(t, 0, construction.TotalOrders)
	assert.True(t, construction.TotalCashOutflow.IsZero())
}

func TestConstructBuyThenPartialSell(t *testing.T) {
	c := newTestConstructor()

	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(1, "ABC", domain.ActionBuy, 10, "100", "2025-01-01T10:00:00Z"),
		order(2, "ABC", domain.ActionSell, 4, "120", "2025-02-01T10:00:00Z"),
	})

	h := construction.Holdings["ABC"]
	require.NotNil(t, h)
	assert.Equal(t, int64(6), h.TotalShares)
	// Average cost survives the sale: 6 shares x 100, not sale proceeds
	assert.True(t, h.TotalInvestment.Equal(decimal.NewFromInt(600)), "got %s", h.TotalInvestment)
	assert.True(t, h.AvgPrice.Equal(decimal.NewFromInt(100)), "got %s", h.AvgPrice)
	assert.Len(t, h.Transactions, 2)

	// Cash outflow nets the sale at its actual value: 1000 - 480
	assert.True(t, construction.TotalCashOutflow.Equal(decimal.NewFromInt(520)),
		"got %s", construction.TotalCashOutflow)
	assert.Equal(t, 2, construction.ProcessedOrders)
	assert.Equal(t, 0, construction.ErrorOrders)
}

func TestConstructAveragesAcrossBuys(t *testing.T) {
	c := newTestConstructor()

	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(1, "ABC", domain.ActionBuy, 10, "100", "2025-01-01T10:00:00Z"),
		order(2, "ABC", domain.ActionBuy, 10, "200", "2025-01-02T10:00:00Z"),
	})

	h := construction.Holdings["ABC"]
	require.NotNil(t, h)
	assert.Equal(t, int64(20), h.TotalShares)
	assert.True(t, h.AvgPrice.Equal(decimal.NewFromInt(150)), "got %s", h.AvgPrice)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), h.FirstPurchaseDate)
	assert.Equal(t, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), h.LastTransactionDate)
}

func TestConstructPrefersSuppliedValue(t *testing.T) {
	c := newTestConstructor()

	buy := order(1, "ABC", domain.ActionBuy, 10, "100", "2025-01-01T10:00:00Z")
	buy.Value = decimal.RequireFromString("1005.50") // includes fees

	construction := c.ConstructFromOrders([]domain.OrderRecord{buy})
	h := construction.Holdings["ABC"]
	require.NotNil(t, h)
	assert.True(t, h.TotalInvestment.Equal(decimal.RequireFromString("1005.50")))
	assert.True(t, h.AvgPrice.Equal(decimal.RequireFromString("100.55")))
}

func TestConstructSkipsOversell(t *testing.T) {
	c := newTestConstructor()

	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(1, "ABC", domain.ActionBuy, 5, "100", "2025-01-01T10:00:00Z"),
		order(2, "ABC", domain.ActionSell, 10, "110", "2025-02-01T10:00:00Z"),
		order(3, "XYZ", domain.ActionSell, 1, "50", "2025-02-01T11:00:00Z"),
	})

	h := construction.Holdings["ABC"]
	require.NotNil(t, h)
	assert.Equal(t, int64(5), h.TotalShares, "oversell must not mutate the position")
	assert.NotContains(t, construction.Holdings, "XYZ")
	assert.Equal(t, 1, construction.ProcessedOrders)
	assert.Equal(t, 2, construction.ErrorOrders)
	assert.Len(t, h.Transactions, 1, "skipped sells leave no transaction")
}

func TestConstructDropsClosedPositions(t *testing.T) {
	c := newTestConstructor()

	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(1, "ABC", domain.ActionBuy, 5, "100", "2025-01-01T10:00:00Z"),
		order(2, "ABC", domain.ActionSell, 5, "110", "2025-02-01T10:00:00Z"),
		order(3, "DEF", domain.ActionBuy, 2, "300", "2025-01-15T10:00:00Z"),
	})

	assert.NotContains(t, construction.Holdings, "ABC")
	assert.Contains(t, construction.Holdings, "DEF")
	assert.Equal(t, 3, construction.ProcessedOrders)
}

func TestConstructSkipsMalformedOrders(t *testing.T) {
	c := newTestConstructor()

	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(1, "ABC", domain.ActionBuy, 0, "100", "2025-01-01T10:00:00Z"),
		order(2, "ABC", domain.ActionBuy, 5, "-10", "2025-01-02T10:00:00Z"),
		order(3, "ABC", domain.Action("HOLD"), 5, "100", "2025-01-03T10:00:00Z"),
		order(4, "ABC", domain.ActionBuy, 5, "100", "2025-01-04T10:00:00Z"),
	})

	assert.Equal(t, 3, construction.ErrorOrders)
	assert.Equal(t, 1, construction.ProcessedOrders)
	assert.Equal(t, int64(5), construction.Holdings["ABC"].TotalShares)
}

func TestConstructSortsOutOfOrderLedger(t *testing.T) {
	c := newTestConstructor()

	// Sell arrives first in the slice but later chronologically
	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(2, "ABC", domain.ActionSell, 3, "120", "2025-03-01T10:00:00Z"),
		order(1, "ABC", domain.ActionBuy, 10, "100", "2025-01-01T10:00:00Z"),
	})

	h := construction.Holdings["ABC"]
	require.NotNil(t, h)
	assert.Equal(t, int64(7), h.TotalShares)
	assert.Equal(t, 0, construction.ErrorOrders)

	require.Len(t, construction.Timeline, 2)
	assert.Equal(t, domain.ActionBuy, construction.Timeline[0].Action)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), construction.FirstOrderDate)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), construction.LastOrderDate)
}

func TestConstructMalformedTimestampFallsBack(t *testing.T) {
	c := newTestConstructor()

	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(1, "ABC", domain.ActionBuy, 5, "100", "not-a-timestamp"),
	})

	h := construction.Holdings["ABC"]
	require.NotNil(t, h)
	assert.Equal(t, 1, construction.ProcessedOrders, "bad timestamps never abort the replay")
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), h.FirstPurchaseDate)
}

func TestConstructIsIdempotent(t *testing.T) {
	c := newTestConstructor()
	orders := []domain.OrderRecord{
		order(1, "ABC", domain.ActionBuy, 10, "100", "2025-01-01T10:00:00Z"),
		order(2, "DEF", domain.ActionBuy, 4, "250", "2025-01-02T10:00:00Z"),
		order(3, "ABC", domain.ActionSell, 2, "110", "2025-02-01T10:00:00Z"),
	}

	first := c.ConstructFromOrders(orders)
	second := c.ConstructFromOrders(orders)

	require.Equal(t, len(first.Holdings), len(second.Holdings))
	for symbol, h := range first.Holdings {
		other := second.Holdings[symbol]
		require.NotNil(t, other)
		assert.Equal(t, h.TotalShares, other.TotalShares)
		assert.True(t, h.TotalInvestment.Equal(other.TotalInvestment))
		assert.True(t, h.AvgPrice.Equal(other.AvgPrice))
	}
	assert.True(t, first.TotalCashOutflow.Equal(second.TotalCashOutflow))
}

func TestConstructLedgerConservation(t *testing.T) {
	c := newTestConstructor()

	construction := c.ConstructFromOrders([]domain.OrderRecord{
		order(1, "A", domain.ActionBuy, 10, "100", "2025-01-01T10:00:00Z"),
		order(2, "B", domain.ActionBuy, 4, "250", "2025-01-02T10:00:00Z"),
		order(3, "A", domain.ActionSell, 5, "120", "2025-02-01T10:00:00Z"),
	})

	// Outflow equals buys minus sells at effective values
	expected := decimal.NewFromInt(1000 + 1000 - 600)
	assert.True(t, construction.TotalCashOutflow.Equal(expected),
		"got %s", construction.TotalCashOutflow)
}
