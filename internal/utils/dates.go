// Package utils provides small shared helpers.
package utils

import (
	"math"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing ledger execution
// times. Records come from several writers so the format varies.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// ParseTimestamp parses a timestamp string permissively, trying multiple
// layouts. Returns the parsed time and true on success, or the fallback
// and false when the string matches no known layout.
func ParseTimestamp(s string, fallback time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return fallback, false
}

// HoldingPeriod returns the whole days and fractional years between two
// times. Periods shorter than one day are treated as one day so that
// annualization never divides by zero.
func HoldingPeriod(start, end time.Time) (days int, years float64) {
	if end.Before(start) {
		start, end = end, start
	}
	days = int(end.Sub(start).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days, float64(days) / 365.25
}

// Round rounds a float to the given number of decimal places.
func Round(val float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(val*factor) / factor
}
