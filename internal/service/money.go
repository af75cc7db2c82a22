package service

import "github.com/shopspring/decimal"

// isCents reports whether d fits the decimal(12,2) money columns without
// rounding, so the amounts returned to the caller match what is stored.
func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
