package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderKind is the execution style requested by the client.
type OrderKind string

const (
	Market            OrderKind = "MARKET"
	Limit             OrderKind = "LIMIT"
	PostOnly          OrderKind = "POST_ONLY"
	ImmediateOrCancel OrderKind = "IMMEDIATE_OR_CANCEL"
	FillOrKill        OrderKind = "FILL_OR_KILL"
)

// OrderStatus is the lifecycle state of an Order. Filled, Cancelled,
// Rejected and Liquidated are terminal — an order never leaves a
// terminal state once it reaches one.
type OrderStatus string

const (
	Pending         OrderStatus = "PENDING"
	Open            OrderStatus = "OPEN"
	PartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	Filled          OrderStatus = "FILLED"
	Cancelled       OrderStatus = "CANCELLED"
	Rejected        OrderStatus = "REJECTED"
	Liquidated      OrderStatus = "LIQUIDATED"
)

// IsTerminal reports whether the status can no longer change.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case Filled, Cancelled, Rejected, Liquidated:
		return true
	default:
		return false
	}
}

// OrderId disambiguates orders across restarts via (machine_id, session,
// monotonic_seq). Retained verbatim from the original implementation.
type OrderId struct {
	MachineId uint16
	Session   uuid.UUID
	Seq       int64
}

func (id OrderId) String() string {
	return fmt.Sprintf("%d-%s-%d", id.MachineId, id.Session, id.Seq)
}

// ClientOrderId is an opaque caller-supplied identifier. Empty means "none".
type ClientOrderId string

// Order is a client order tracked by the open-order book and account.
type Order struct {
	Id             OrderId
	ClientOrderId  ClientOrderId
	Instrument     Instrument
	Side           Side
	Kind           OrderKind
	Price          decimal.Decimal // zero for Market orders
	Qty            decimal.Decimal
	FilledQty      decimal.Decimal
	Status         OrderStatus
	CreatedTs      int64 // exchange_timestamp at accept time, microseconds
	LockedAsset    Token
	LockedAmount   decimal.Decimal // balance locked while the order rests
	InsertionSeq   int64           // book-assigned FIFO tie-break sequence

	// PositionSide selects which leg a LongShort-mode fill applies to.
	// Unused (zero value) in Net mode.
	PositionSide Direction
}

// RemainingQty returns Qty - FilledQty.
func (o *Order) RemainingQty() decimal.Decimal {
	return o.Qty.Sub(o.FilledQty)
}
