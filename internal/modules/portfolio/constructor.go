package portfolio

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/utils"
)

// Constructor replays order records into portfolio state
type Constructor struct {
	log zerolog.Logger
	now func() time.Time
}

// NewConstructor creates a new portfolio constructor
func NewConstructor(log zerolog.Logger) *Constructor {
	return &Constructor{
		log: log.With().Str("service", "portfolio").Logger(),
		now: time.Now,
	}
}

// ConstructFromOrders replays the full order list in chronological
// order and returns the resulting holdings and timeline. Replay never
// fails: malformed orders are counted and skipped, oversells are
// logged and ignored. Re-running over the same ledger is idempotent.
func (c *Constructor) ConstructFromOrders(orders []domain.OrderRecord) *Construction {
	construction := &Construction{
		Holdings:         make(map[string]*Holding),
		TotalCashOutflow: decimal.Zero,
		TotalOrders:      len(orders),
	}
	if len(orders) == 0 {
		return construction
	}

	sorted := c.sortChronologically(orders)

	for _, o := range sorted {
		if o.record.Shares <= 0 || !o.record.Price.IsPositive() {
			c.log.Warn().
				Int64("order_id", o.record.OrderID).
				Str("symbol", o.record.Symbol).
				Int64("shares", o.record.Shares).
				Str("price", o.record.Price.String()).
				Msg("Skipping malformed order")
			construction.ErrorOrders++
			continue
		}

		switch o.record.Action {
		case domain.ActionBuy:
			c.applyBuy(construction, o)
		case domain.ActionSell:
			if !c.applySell(construction, o) {
				construction.ErrorOrders++
				continue
			}
		default:
			c.log.Warn().
				Int64("order_id", o.record.OrderID).
				Str("action", string(o.record.Action)).
				Msg("Skipping order with unknown action")
			construction.ErrorOrders++
			continue
		}

		construction.ProcessedOrders++
		construction.Timeline = append(construction.Timeline, TimelineEntry{
			Date:   o.date,
			Symbol: o.record.Symbol,
			Action: o.record.Action,
			Shares: o.record.Shares,
			Price:  o.record.Price,
			Value:  o.record.EffectiveValue(),
		})
		if construction.FirstOrderDate.IsZero() || o.date.Before(construction.FirstOrderDate) {
			construction.FirstOrderDate = o.date
		}
		if o.date.After(construction.LastOrderDate) {
			construction.LastOrderDate = o.date
		}
	}

	// Positions sold down to zero are no longer holdings
	for symbol, h := range construction.Holdings {
		if h.TotalShares == 0 {
			delete(construction.Holdings, symbol)
		}
	}

	c.log.Info().
		Int("total_orders", construction.TotalOrders).
		Int("processed", construction.ProcessedOrders).
		Int("errors", construction.ErrorOrders).
		Int("holdings", len(construction.Holdings)).
		Msg("Portfolio constructed from order ledger")

	return construction
}

// datedOrder pairs a record with its parsed execution time.
type datedOrder struct {
	record domain.OrderRecord
	date   time.Time
}

// sortChronologically orders records by execution time, breaking ties
// by OrderID. Unparseable timestamps fall back to "now" rather than
// aborting the replay.
func (c *Constructor) sortChronologically(orders []domain.OrderRecord) []datedOrder {
	now := c.now()
	out := make([]datedOrder, 0, len(orders))
	for _, rec := range orders {
		date, ok := utils.ParseTimestamp(rec.ExecutionTime, now)
		if !ok {
			c.log.Warn().
				Int64("order_id", rec.OrderID).
				Str("execution_time", rec.ExecutionTime).
				Msg("Unparseable execution time, falling back to now")
		}
		out = append(out, datedOrder{record: rec, date: date})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].date.Equal(out[j].date) {
			return out[i].date.Before(out[j].date)
		}
		return out[i].record.OrderID < out[j].record.OrderID
	})
	return out
}

func (c *Constructor) applyBuy(construction *Construction, o datedOrder) {
	h, ok := construction.Holdings[o.record.Symbol]
	if !ok {
		h = &Holding{
			Symbol:            o.record.Symbol,
			TotalInvestment:   decimal.Zero,
			AvgPrice:          decimal.Zero,
			FirstPurchaseDate: o.date,
		}
		construction.Holdings[o.record.Symbol] = h
	}

	value := o.record.EffectiveValue()
	h.TotalShares += o.record.Shares
	h.TotalInvestment = h.TotalInvestment.Add(value)
	h.AvgPrice = h.TotalInvestment.Div(decimal.NewFromInt(h.TotalShares))
	h.LastTransactionDate = o.date
	h.Transactions = append(h.Transactions, Transaction{
		Date:   o.date,
		Action: domain.ActionBuy,
		Shares: o.record.Shares,
		Price:  o.record.Price,
		Value:  value,
	})

	construction.TotalCashOutflow = construction.TotalCashOutflow.Add(value)
}

// applySell reduces a position at average cost. Returns false when the
// ledger asks to sell more shares than are held; the mutation is
// skipped so one bad record cannot corrupt the whole replay.
func (c *Constructor) applySell(construction *Construction, o datedOrder) bool {
	h, ok := construction.Holdings[o.record.Symbol]
	if !ok || h.TotalShares < o.record.Shares {
		held := int64(0)
		if ok {
			held = h.TotalShares
		}
		c.log.Warn().
			Int64("order_id", o.record.OrderID).
			Str("symbol", o.record.Symbol).
			Int64("sell_shares", o.record.Shares).
			Int64("held_shares", held).
			Msg("Sell exceeds held shares, skipping inconsistent order")
		return false
	}

	value := o.record.EffectiveValue()
	h.TotalShares -= o.record.Shares
	// Average cost is preserved: investment shrinks in proportion to
	// the shares sold, not by the sale proceeds.
	h.TotalInvestment = h.AvgPrice.Mul(decimal.NewFromInt(h.TotalShares))
	h.LastTransactionDate = o.date
	h.Transactions = append(h.Transactions, Transaction{
		Date:   o.date,
		Action: domain.ActionSell,
		Shares: o.record.Shares,
		Price:  o.record.Price,
		Value:  value,
	})

	construction.TotalCashOutflow = construction.TotalCashOutflow.Sub(value)
	return true
}
