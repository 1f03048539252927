package model

import "github.com/shopspring/decimal"

// MarginMode controls how collateral is pooled across positions.
type MarginMode string

const (
	Cross                MarginMode = "CROSS"
	Isolated             MarginMode = "ISOLATED"
	SingleCurrencyMargin MarginMode = "SINGLE_CURRENCY_MARGIN"
)

// PositionDirectionMode controls whether an instrument has one aggregate
// position (Net) or two independent legs (LongShort).
type PositionDirectionMode string

const (
	ModeNet       PositionDirectionMode = "NET"
	ModeLongShort PositionDirectionMode = "LONG_SHORT"
)

// PositionMarginMode controls per-position margining within an account
// that is overall in Cross mode.
type PositionMarginMode string

const (
	PositionCross    PositionMarginMode = "CROSS"
	PositionIsolated PositionMarginMode = "ISOLATED"
)

// CommissionLevel indexes a tier in the fees book.
type CommissionLevel string

// ExecutionMode distinguishes a deterministic backtest run from a
// low-latency local live venue.
type ExecutionMode string

const (
	Backtest ExecutionMode = "BACKTEST"
	Live     ExecutionMode = "LIVE"
)

// FeeTier holds the taker/maker fee rates for one commission level.
type FeeTier struct {
	Taker decimal.Decimal
	Maker decimal.Decimal
}

// FeesBook maps commission levels to their fee tiers.
type FeesBook map[CommissionLevel]FeeTier

// Rate returns the fee rate for a level/liquidity pair, defaulting to
// zero if the level is unconfigured.
func (fb FeesBook) Rate(level CommissionLevel, liquidity Liquidity) decimal.Decimal {
	tier, ok := fb[level]
	if !ok {
		return decimal.Zero
	}
	if liquidity == Maker {
		return tier.Maker
	}
	return tier.Taker
}

// AccountConfig is an immutable snapshot taken at account construction.
type AccountConfig struct {
	MarginMode             MarginMode
	PositionDirectionMode  PositionDirectionMode
	PositionMarginMode     PositionMarginMode
	CommissionLevel        CommissionLevel
	FundingRate            decimal.Decimal
	FundingIntervalMicros  int64
	Leverage               decimal.Decimal
	FeesBook               FeesBook
	ExecutionMode          ExecutionMode
	MaxPriceDeviation      decimal.Decimal
	LiquidationThreshold   decimal.Decimal
	LazyAccountPositions   bool
	MachineId              uint16
	// MaxFillQtyPerTick rate-limits matching within a single tick; zero
	// means unbounded (the single-level book assumes unlimited top-of-book
	// depth unless a caller opts into a cap).
	MaxFillQtyPerTick decimal.Decimal
}

// UnboundedFillQty is the effective per-tick fill cap when
// AccountConfig.MaxFillQtyPerTick is left at its zero value.
var UnboundedFillQty = decimal.NewFromInt(1 << 40)
