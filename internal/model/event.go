package model

import "github.com/shopspring/decimal"

// MarketTrade is one record pulled from the external DataSource.
type MarketTrade struct {
	Exchange     string
	Symbol       string
	Side         Side
	Price        decimal.Decimal
	Amount       decimal.Decimal
	TimestampUs  int64
}

// MarketEvent is published on the outbound market channel after every
// tick: the instrument whose book just moved, its fresh top-of-book, and
// the trade that drove the update (if any).
type MarketEvent struct {
	Instrument Instrument
	Level      BookLevel
	Trade      *MarketTrade
}

// AccountEventKind enumerates the account-facing notifications the core emits.
type AccountEventKind string

const (
	EventOrderOpened     AccountEventKind = "ORDER_OPENED"
	EventOrderRejected   AccountEventKind = "ORDER_REJECTED"
	EventOrderCancelled  AccountEventKind = "ORDER_CANCELLED"
	EventTrade           AccountEventKind = "TRADE"
	EventBalanceDelta    AccountEventKind = "BALANCE_DELTA"
	EventLiquidation     AccountEventKind = "LIQUIDATION"
	EventFunding         AccountEventKind = "FUNDING"
	EventHalt            AccountEventKind = "HALT"
	EventEndOfStream     AccountEventKind = "END_OF_STREAM"
)

// AccountEvent is one notification on the account's outbound event
// channel. Only the fields relevant to Kind are populated.
type AccountEvent struct {
	Kind           AccountEventKind
	Timestamp      int64
	Order          *Order
	Trade          *Trade
	Balance        *Balance
	Position       *Position
	ExitedPosition *ExitedPosition
	Reason         string
}
