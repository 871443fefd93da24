// Package investment runs the initial investment workflow: gate on the
// minimum amount, build an optimal allocation, and record the resulting
// orders in the ledger.
package investment

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/modules/allocation"
)

// Service orchestrates initial investments
type Service struct {
	calc   *allocation.Calculator
	ledger domain.LedgerStore
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates a new investment service
func NewService(calc *allocation.Calculator, ledger domain.LedgerStore, log zerolog.Logger) *Service {
	return &Service{
		calc:   calc,
		ledger: ledger,
		log:    log.With().Str("service", "investment").Logger(),
		now:    time.Now,
	}
}

// Plan validates the amount against the computed minimum and returns
// the optimal allocation. Returns BelowMinimumInvestmentError when the
// amount is too small; nothing is persisted.
func (s *Service) Plan(amount decimal.Decimal, stocks []domain.StockQuote) (*allocation.Summary, error) {
	if err := s.calc.CheckMinimum(amount, stocks); err != nil {
		return nil, err
	}
	return s.calc.OptimalAllocation(amount, stocks)
}

// Execute plans the investment and appends one executed BUY order per
// allocated stock to the ledger, atomically.
func (s *Service) Execute(amount decimal.Decimal, stocks []domain.StockQuote) (*allocation.Summary, []domain.OrderRecord, error) {
	summary, err := s.Plan(amount, stocks)
	if err != nil {
		return nil, nil, err
	}

	executionTime := s.now().UTC().Format(time.RFC3339)
	records := make([]domain.OrderRecord, 0, len(summary.Entries))
	for _, e := range summary.Entries {
		if e.Shares <= 0 {
			continue
		}
		records = append(records, domain.OrderRecord{
			Symbol:            e.Symbol,
			Action:            domain.ActionBuy,
			Shares:            e.Shares,
			Price:             e.Price,
			Value:             e.Value,
			AllocationPercent: e.AllocationPct,
			ExecutionTime:     executionTime,
			SessionType:       domain.SessionInitialInvestment,
			Status:            domain.StatusExecuted,
		})
	}

	persisted, err := s.ledger.AppendAll(records)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record investment orders: %w", err)
	}

	s.log.Info().
		Str("amount", amount.StringFixed(2)).
		Int("orders", len(persisted)).
		Msg("Initial investment executed")

	return summary, persisted, nil
}
