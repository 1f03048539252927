package model

import "github.com/shopspring/decimal"

// Liquidity marks whether a fill removed resting liquidity (taker) or
// added it (maker); fee tiers differ by this flag.
type Liquidity string

const (
	Taker Liquidity = "TAKER"
	Maker Liquidity = "MAKER"
)

// Trade is an append-only execution record.
type Trade struct {
	TradeId    int64
	OrderId    OrderId
	Instrument Instrument
	Side       Side
	Price      decimal.Decimal
	Qty        decimal.Decimal
	FeeAsset   Token
	Fee        decimal.Decimal
	Liquidity  Liquidity
	Timestamp  int64 // microseconds
}
