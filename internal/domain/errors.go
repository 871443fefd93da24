package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for invalid requests. Wrap with fmt.Errorf("...: %w", ...)
// so callers can classify with errors.Is.
var (
	// ErrInvalidInput covers structurally invalid requests: empty stock
	// lists, non-positive prices or amounts, unknown actions.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoHoldings is returned when an operation needs a constructed
	// portfolio but the ledger replay produced no open positions.
	ErrNoHoldings = errors.New("no current holdings")

	// ErrNoTargetUniverse is returned when a rebalance is requested
	// against an empty target universe.
	ErrNoTargetUniverse = errors.New("no target universe")
)

// BelowMinimumInvestmentError is returned when a requested investment
// amount cannot satisfy every position's minimum allocation.
type BelowMinimumInvestmentError struct {
	Requested decimal.Decimal
	Minimum   decimal.Decimal
}

func (e *BelowMinimumInvestmentError) Error() string {
	return fmt.Sprintf("investment amount %s is below required minimum %s",
		e.Requested.StringFixed(2), e.Minimum.StringFixed(2))
}
