package model

import "github.com/shopspring/decimal"

// Balance tracks one asset's total/available/locked split.
// Invariant: Available + Locked == Total, all three >= 0.
type Balance struct {
	Asset     Token
	Total     decimal.Decimal
	Available decimal.Decimal
	Locked    decimal.Decimal
}
