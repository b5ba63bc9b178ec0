// Package core holds the domain types and pure computations of the
// accounting consolidation layer: money parsing, the category tree builder
// and the daily/summary aggregations.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a monetary string from the store into a fixed-point
// decimal. Amounts stay decimal all the way through aggregation; they are
// never coerced through a binary float, so a month of additions cannot drift.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rejects empty, malformed or negative values.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders a decimal with two fraction digits for display and
// export. Internal arithmetic keeps full precision.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
