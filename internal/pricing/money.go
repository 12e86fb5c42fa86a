package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney converts a monetary string into a decimal, treating absent or
// unparsable input as zero. This is the single fail-soft boundary for
// display-side money handling; data-entry paths validate with
// decimal.NewFromString directly and reject bad input instead.
func ParseMoney(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatMoney renders a decimal with exactly two fraction digits, rounding
// half away from zero.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
