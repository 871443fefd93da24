// Package universe manages the investable set of securities.
package universe

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/domain"
)

// Security is one investable instrument with a verified market price.
type Security struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name,omitempty"`
	Price  decimal.Decimal `json:"price"`
	Score  float64         `json:"score,omitempty"`
}

// Snapshot is a point-in-time view of the target universe.
type Snapshot struct {
	Securities []Security `json:"securities"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// Provider supplies the current target universe. Implementations fetch
// from an external source; they must never invent prices.
type Provider interface {
	Snapshot() (Snapshot, error)
}

// Symbols returns the universe's symbols sorted ascending.
func (s Snapshot) Symbols() []string {
	out := make([]string, 0, len(s.Securities))
	for _, sec := range s.Securities {
		out = append(out, sec.Symbol)
	}
	sort.Strings(out)
	return out
}

// Quotes converts the snapshot to plain symbol/price quotes.
func (s Snapshot) Quotes() []domain.StockQuote {
	out := make([]domain.StockQuote, 0, len(s.Securities))
	for _, sec := range s.Securities {
		out = append(out, domain.StockQuote{Symbol: sec.Symbol, Price: sec.Price})
	}
	return out
}

// Prices converts the snapshot to a price map keyed by symbol.
func (s Snapshot) Prices() domain.PriceMap {
	out := make(domain.PriceMap, len(s.Securities))
	for _, sec := range s.Securities {
		out[sec.Symbol] = domain.PriceQuote{Price: sec.Price}
	}
	return out
}

// Hash returns a stable fingerprint of the universe membership. Two
// snapshots with the same symbols hash identically regardless of order.
func (s Snapshot) Hash() string {
	symbols := s.Symbols()
	h := sha256.Sum256([]byte(strings.Join(symbols, ",")))
	return hex.EncodeToString(h[:])
}
