package universe

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sec(symbol string, price string) Security {
	return Security{Symbol: symbol, Price: decimal.RequireFromString(price)}
}

func TestValidate(t *testing.T) {
	v := NewValidator(zerolog.Nop())

	valid, rejected := v.Validate([]Security{
		sec("goldbees", "55.50"),
		sec("JUNKY", "0"),
		sec("NEGATIVE", "-12"),
		sec("PENNY", "0.05"),
		sec("ABSURD", "2000000"),
		sec("niftybees", "250"),
		sec("  ", "100"),
	})

	assert.Len(t, valid, 2)
	assert.Equal(t, "GOLDBEES", valid[0].Symbol, "symbols are normalized")
	assert.Equal(t, "NIFTYBEES", valid[1].Symbol)
	assert.Len(t, rejected, 5)
}

func TestSnapshotHashIsOrderIndependent(t *testing.T) {
	a := Snapshot{Securities: []Security{sec("A", "1"), sec("B", "2")}}
	b := Snapshot{Securities: []Security{sec("B", "2"), sec("A", "1")}}
	c := Snapshot{Securities: []Security{sec("A", "1"), sec("C", "3")}}

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestSnapshotConversions(t *testing.T) {
	s := Snapshot{Securities: []Security{sec("B", "2"), sec("A", "1")}}

	assert.Equal(t, []string{"A", "B"}, s.Symbols())

	quotes := s.Quotes()
	assert.Len(t, quotes, 2)
	assert.Equal(t, "B", quotes[0].Symbol)

	prices := s.Prices()
	p, ok := prices.Get("A")
	assert.True(t, ok)
	assert.True(t, p.Equal(decimal.NewFromInt(1)))
	_, ok = prices.Get("MISSING")
	assert.False(t, ok)
}
