package model

import "github.com/shopspring/decimal"

// BookLevel is the top-of-book snapshot for one instrument: no depth,
// just best bid, best ask, and the last traded price.
type BookLevel struct {
	Bid   decimal.Decimal
	Ask   decimal.Decimal
	Last  decimal.Decimal
	Ts    int64
}

// Mid returns (bid+ask)/2, or Last if one side of the book is unset.
func (l BookLevel) Mid() decimal.Decimal {
	if l.Bid.IsZero() || l.Ask.IsZero() {
		return l.Last
	}
	return l.Bid.Add(l.Ask).Div(decimal.NewFromInt(2))
}

// SingleLevelOrderBook holds the latest top-of-book snapshot per
// instrument. Entries are overwritten wholesale on every market tick —
// there is no depth tracking.
type SingleLevelOrderBook struct {
	levels map[Instrument]BookLevel
}

// NewSingleLevelOrderBook constructs an empty top-of-book table.
func NewSingleLevelOrderBook() *SingleLevelOrderBook {
	return &SingleLevelOrderBook{levels: make(map[Instrument]BookLevel)}
}

// Update overwrites the snapshot for an instrument.
func (b *SingleLevelOrderBook) Update(instrument Instrument, level BookLevel) {
	b.levels[instrument] = level
}

// Get returns the current snapshot for an instrument, or the zero value
// and false if no tick has ever been observed for it.
func (b *SingleLevelOrderBook) Get(instrument Instrument) (BookLevel, bool) {
	l, ok := b.levels[instrument]
	return l, ok
}

// Instruments returns every instrument that has received at least one tick.
func (b *SingleLevelOrderBook) Instruments() []Instrument {
	out := make([]Instrument, 0, len(b.levels))
	for i := range b.levels {
		out = append(out, i)
	}
	return out
}
