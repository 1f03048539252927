package model

import "github.com/shopspring/decimal"

// Direction is the side of a held position. Unlike a position's identity
// key (instrument, and in LongShort mode, direction itself), direction
// here only ever takes Long or Short — a Net-mode account still holds
// one Long or Short position per instrument, flipping as fills offset it.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Position is a trader's open exposure in one instrument (and, in
// LongShort mode, on one side of it).
type Position struct {
	Instrument    Instrument
	Direction     Direction
	Qty           decimal.Decimal
	AvgEntryPrice decimal.Decimal
	UnrealizedPnL decimal.Decimal
	RealizedPnL   decimal.Decimal
	MarginLocked  decimal.Decimal
	Leverage      decimal.Decimal
	OpenTs        int64
}

// Notional returns the position's current notional value at its entry price.
func (p *Position) Notional() decimal.Decimal {
	return p.Qty.Mul(p.AvgEntryPrice)
}

// ExitReason records why a position was closed.
type ExitReason string

const (
	// ManualClose names a close driven by something other than an
	// offsetting order fill — no dispatcher request distinct from
	// OpenOrder exists to produce one today, so every client-driven
	// close is currently tagged OffsetFill. Kept for the archive
	// schema's completeness and for a future explicit close-position
	// request to use.
	ManualClose ExitReason = "MANUAL_CLOSE"
	OffsetFill  ExitReason = "OFFSET_FILL"
	Liquidation ExitReason = "LIQUIDATION"
)

// ExitedPosition is an append-only archive record snapshotting a Position
// at the moment it closed.
type ExitedPosition struct {
	Instrument    Instrument
	Direction     Direction
	Qty           decimal.Decimal
	AvgEntryPrice decimal.Decimal
	ExitPrice     decimal.Decimal
	RealizedPnL   decimal.Decimal
	ExitReason    ExitReason
	OpenTs        int64
	CloseTs       int64
}
