package universe

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Validation thresholds. Prices outside this band are treated as feed
// glitches and the security is excluded rather than guessed at.
var (
	absolutePriceMin = decimal.RequireFromString("0.1")
	absolutePriceMax = decimal.NewFromInt(100000)
)

// Validator filters securities with unusable market data
type Validator struct {
	log zerolog.Logger
}

// NewValidator creates a new universe validator
func NewValidator(log zerolog.Logger) *Validator {
	return &Validator{
		log: log.With().Str("component", "universe_validator").Logger(),
	}
}

// Validate returns the securities with usable prices and the symbols of
// those rejected. A rejected security is dropped entirely; no fallback
// price is ever substituted.
func (v *Validator) Validate(securities []Security) (valid []Security, rejected []string) {
	for _, sec := range securities {
		symbol := strings.ToUpper(strings.TrimSpace(sec.Symbol))
		if symbol == "" {
			v.log.Warn().Msg("Dropping security with empty symbol")
			rejected = append(rejected, sec.Symbol)
			continue
		}
		if reason := priceReason(sec.Price); reason != "" {
			v.log.Warn().
				Str("symbol", symbol).
				Str("price", sec.Price.String()).
				Str("reason", reason).
				Msg("Dropping security with unusable price")
			rejected = append(rejected, symbol)
			continue
		}
		sec.Symbol = symbol
		valid = append(valid, sec)
	}
	return valid, rejected
}

func priceReason(price decimal.Decimal) string {
	switch {
	case !price.IsPositive():
		return "non_positive"
	case price.LessThan(absolutePriceMin):
		return "below_minimum"
	case price.GreaterThan(absolutePriceMax):
		return "above_maximum"
	}
	return ""
}
