// Package book implements the Open-Order Book: per-instrument pending
// client orders keyed by a structured order id, plus the order-id and
// trade-id counters. It assumes single-threaded access under the
// account's mutex — see internal/account for the locking discipline.
package book

import (
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

// FillInstruction is one resting-order fill produced by matching against
// a top-of-book snapshot. The caller (internal/account) applies it to
// balances/positions and appends a Trade.
type FillInstruction struct {
	Order     *model.Order
	Price     decimal.Decimal
	Qty       decimal.Decimal
	Liquidity model.Liquidity
}

// Book holds every instrument's resting Buy/Sell orders, sorted by price
// priority then insertion sequence (FIFO within a price level).
type Book struct {
	machineId uint16
	session   uuid.UUID
	orderSeq  int64
	tradeSeq  atomic.Int64

	bids map[model.Instrument][]*model.Order
	asks map[model.Instrument][]*model.Order
	byId map[model.OrderId]*model.Order
}

// New creates an empty Book. machineId and session together with the
// per-order monotonic sequence form the OrderId triple.
func New(machineId uint16, session uuid.UUID) *Book {
	return &Book{
		machineId: machineId,
		session:   session,
		bids:      make(map[model.Instrument][]*model.Order),
		asks:      make(map[model.Instrument][]*model.Order),
		byId:      make(map[model.OrderId]*model.Order),
	}
}

// NextOrderId assigns the next (machine_id, session, seq) triple.
func (b *Book) NextOrderId() model.OrderId {
	b.orderSeq++
	return model.OrderId{MachineId: b.machineId, Session: b.session, Seq: b.orderSeq}
}

// NextTradeId assigns the next global trade id. Atomic because read-only
// observers may want the current counter value without taking the
// account's lock.
func (b *Book) NextTradeId() int64 {
	return b.tradeSeq.Add(1)
}

func (b *Book) sideMap(side model.Side) map[model.Instrument][]*model.Order {
	if side == model.Buy {
		return b.bids
	}
	return b.asks
}

// Insert adds order to its instrument/side queue, in price-time order,
// and assigns its FIFO insertion sequence.
func (b *Book) Insert(order *model.Order) {
	order.InsertionSeq = b.orderSeq
	m := b.sideMap(order.Side)
	list := append(m[order.Instrument], order)
	sortLevel(list, order.Side)
	m[order.Instrument] = list
	b.byId[order.Id] = order
}

func sortLevel(list []*model.Order, side model.Side) {
	sort.SliceStable(list, func(i, j int) bool {
		pi, pj := list[i].Price, list[j].Price
		if !pi.Equal(pj) {
			if side == model.Buy {
				return pi.GreaterThan(pj) // bids: best (highest) price first
			}
			return pi.LessThan(pj) // asks: best (lowest) price first
		}
		return list[i].InsertionSeq < list[j].InsertionSeq
	})
}

// Get looks up a resting order by id.
func (b *Book) Get(id model.OrderId) (*model.Order, bool) {
	o, ok := b.byId[id]
	return o, ok
}

// Remove removes an order from its side queue and the id index. Returns
// false if the order was not resting (already terminal or unknown).
func (b *Book) Remove(id model.OrderId) (*model.Order, bool) {
	o, ok := b.byId[id]
	if !ok {
		return nil, false
	}
	delete(b.byId, id)
	m := b.sideMap(o.Side)
	list := m[o.Instrument]
	for i, cand := range list {
		if cand.Id == id {
			m[o.Instrument] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return o, true
}

// Orders returns a snapshot of the resting orders for one instrument and
// side, in price-time priority order.
func (b *Book) Orders(instrument model.Instrument, side model.Side) []*model.Order {
	src := b.sideMap(side)[instrument]
	out := make([]*model.Order, len(src))
	copy(out, src)
	return out
}

// AllOpen returns every resting order across all instruments and sides.
func (b *Book) AllOpen() []*model.Order {
	var out []*model.Order
	for _, list := range b.bids {
		out = append(out, list...)
	}
	for _, list := range b.asks {
		out = append(out, list...)
	}
	return out
}

// TopOfBookFor returns the best resting price on the given side for an
// instrument, and whether one exists.
func (b *Book) TopOfBookFor(instrument model.Instrument, side model.Side) (decimal.Decimal, bool) {
	list := b.sideMap(side)[instrument]
	if len(list) == 0 {
		return decimal.Zero, false
	}
	return list[0].Price, true
}
