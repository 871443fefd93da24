package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/domain"
	"github.com/quantfolio/quantfolio/internal/modules/portfolio"
	"github.com/quantfolio/quantfolio/internal/modules/rebalancing"
	"github.com/quantfolio/quantfolio/internal/modules/universe"
)

// RebalanceCheckJob periodically compares the current holdings against the
// target universe and logs whether a rebalance is needed.
type RebalanceCheckJob struct {
	ledger      domain.LedgerStore
	constructor *portfolio.Constructor
	planner     *rebalancing.Planner
	provider    universe.Provider
	log         zerolog.Logger
}

// NewRebalanceCheckJob creates a new rebalance check job
func NewRebalanceCheckJob(
	ledger domain.LedgerStore,
	constructor *portfolio.Constructor,
	planner *rebalancing.Planner,
	provider universe.Provider,
	log zerolog.Logger,
) *RebalanceCheckJob {
	return &RebalanceCheckJob{
		ledger:      ledger,
		constructor: constructor,
		planner:     planner,
		provider:    provider,
		log:         log.With().Str("job", "rebalance_check").Logger(),
	}
}

// Name returns the job name
func (j *RebalanceCheckJob) Name() string {
	return "rebalance_check"
}

// Run checks whether the portfolio composition has drifted from the universe
func (j *RebalanceCheckJob) Run(ctx context.Context) error {
	orders, err := j.ledger.All()
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}
	if len(orders) == 0 {
		j.log.Debug().Msg("No orders yet, skipping check")
		return nil
	}

	construction := j.constructor.ConstructFromOrders(orders)
	if len(construction.Holdings) == 0 {
		j.log.Debug().Msg("No open holdings, skipping check")
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot, err := j.provider.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to load universe: %w", err)
	}

	need := j.planner.CheckNeeded(construction.Symbols(), snapshot.Symbols())
	if need.Needed {
		j.log.Warn().
			Strs("new_stocks", need.NewStocks).
			Strs("removed_stocks", need.RemovedStocks).
			Msg("Portfolio composition differs from target universe")
	} else {
		j.log.Info().
			Int("holdings", len(construction.Holdings)).
			Msg("Portfolio composition matches target universe")
	}

	return nil
}
