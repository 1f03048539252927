// Package exchange assembles an account, engine, dispatcher and event
// hub into one running exchange instance. Builder mirrors the original
// ExchangeBuilder/initiate() split: chained setters collect the pieces a
// session needs, and a final Initiate validates all of them are present
// before wiring anything together, returning an error instead of a
// half-built Exchange.
package exchange

import (
	"fmt"

	"github.com/hourglass-exchange/hourglass/internal/account"
	"github.com/hourglass-exchange/hourglass/internal/datasource"
	"github.com/hourglass-exchange/hourglass/internal/dispatcher"
	"github.com/hourglass-exchange/hourglass/internal/engine"
	"github.com/hourglass-exchange/hourglass/internal/events"
	"github.com/hourglass-exchange/hourglass/internal/model"
)

// Exchange is a fully wired dispatcher and event hub, ready to run.
// Initiate never starts either — the caller still does
// `go ex.Dispatcher.Run(ctx)` and `go ex.Hub.Run(ctx, ex.Dispatcher)`
// itself, same as it would with either piece built by hand.
type Exchange struct {
	Dispatcher *dispatcher.Dispatcher
	Hub        *events.Hub
}

// Builder collects the pieces Initiate needs. Each setter returns the
// Builder so calls chain:
//
//	ex, err := exchange.NewBuilder().
//		Account(acc).
//		DataSource(src).
//		Symbols(symbols).
//		Sink(archiveSink).
//		Initiate()
type Builder struct {
	account    *account.Account
	dataSource datasource.Source
	symbols    map[string]model.Instrument
	sinks      []events.Sink
	bufSize    int
}

// NewBuilder returns an empty Builder with the dispatcher's default
// request buffer size already set.
func NewBuilder() *Builder {
	return &Builder{bufSize: 256}
}

// Account sets the account the engine and dispatcher operate on.
func (b *Builder) Account(acc *account.Account) *Builder {
	b.account = acc
	return b
}

// DataSource sets the market-trade cursor the engine's tick loop drives.
func (b *Builder) DataSource(src datasource.Source) *Builder {
	b.dataSource = src
	return b
}

// Symbols sets the feed-symbol-to-Instrument map the engine matches
// incoming trades against.
func (b *Builder) Symbols(symbols map[string]model.Instrument) *Builder {
	b.symbols = symbols
	return b
}

// Sink registers an additional event sink (archive, Redis relay, ...) on
// the Hub this Exchange builds. Order is not significant.
func (b *Builder) Sink(sink events.Sink) *Builder {
	b.sinks = append(b.sinks, sink)
	return b
}

// RequestBufferSize overrides the dispatcher's request channel capacity.
func (b *Builder) RequestBufferSize(n int) *Builder {
	b.bufSize = n
	return b
}

// Initiate validates every required field is set and wires the engine,
// dispatcher, and event hub together.
func (b *Builder) Initiate() (*Exchange, error) {
	if b.account == nil {
		return nil, fmt.Errorf("exchange builder: account is required")
	}
	if b.dataSource == nil {
		return nil, fmt.Errorf("exchange builder: data source is required")
	}
	if len(b.symbols) == 0 {
		return nil, fmt.Errorf("exchange builder: at least one symbol is required")
	}

	eng := engine.New(b.account, b.dataSource, b.symbols)
	disp := dispatcher.New(b.account, eng, b.bufSize)

	hub := events.NewHub()
	for _, sink := range b.sinks {
		hub.Subscribe(sink)
	}

	return &Exchange{Dispatcher: disp, Hub: hub}, nil
}
