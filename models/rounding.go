package models

import "github.com/shopspring/decimal"

var half = decimal.New(5, -1)

// RoundHalfUp is the single rounding rule used everywhere money is
// finalized: fractional part >= 0.5 rounds up to the next integer, anything
// below truncates. No banker's rounding, no locale dependence. The returned
// decimal is integer-valued.
func RoundHalfUp(value decimal.Decimal) decimal.Decimal {
	return value.Add(half).Floor()
}

// RoundOffDelta is the signed difference a caller must surface as the
// "round off" line when finalizing a net amount. Never silently dropped;
// the tax ledger reconciles against it.
func RoundOffDelta(value decimal.Decimal) (rounded decimal.Decimal, roundOff decimal.Decimal) {
	rounded = RoundHalfUp(value)
	return rounded, rounded.Sub(value)
}
