// Package engine implements the exchange's tick loop: pull a market
// trade, advance the clock, refresh the single-level book, mark
// positions, check liquidations, run the matcher against resting
// orders, and apply funding when due.
package engine

import (
	"context"
	"log/slog"

	"github.com/hourglass-exchange/hourglass/internal/account"
	"github.com/hourglass-exchange/hourglass/internal/book"
	"github.com/hourglass-exchange/hourglass/internal/datasource"
	"github.com/hourglass-exchange/hourglass/internal/model"
)

// Engine drives one account's exchange_timestamp forward, tick by tick,
// off a single DataSource. It holds no account state of its own — that
// lives in Account — only the wiring between the feed and the account.
type Engine struct {
	account *account.Account
	source  datasource.Source

	// symbols maps feed symbols ("ETHUSDT") to the Instrument the core
	// matches against. Trades for unmapped symbols are ignored.
	symbols map[string]model.Instrument

	halted    bool
	haltedErr *model.ExchangeError
	exhausted bool
}

// New wires an Engine to the given account and feed.
func New(acc *account.Account, source datasource.Source, symbols map[string]model.Instrument) *Engine {
	return &Engine{account: acc, source: source, symbols: symbols}
}

// Halted reports whether the engine stopped processing after a stream
// error and, if so, the error that caused it.
func (e *Engine) Halted() (bool, *model.ExchangeError) { return e.halted, e.haltedErr }

// Tick implements one LetItRoll step: pull the next market record (or
// idle one microsecond if the source is momentarily dry), update state,
// and run the matcher. It returns every MarketEvent and AccountEvent the
// step produced.
func (e *Engine) Tick(ctx context.Context) ([]model.MarketEvent, []model.AccountEvent, *model.ExchangeError) {
	if e.halted {
		return nil, nil, e.haltedErr
	}
	if e.exhausted {
		return nil, []model.AccountEvent{{Kind: model.EventEndOfStream, Timestamp: e.accountNow()}}, nil
	}

	trade, srcErr := e.source.Next(ctx)
	if srcErr != nil {
		switch srcErr.Kind {
		case model.ErrDataSourceExhausted:
			e.exhausted = true
			now := e.accountNow()
			return nil, []model.AccountEvent{{Kind: model.EventEndOfStream, Timestamp: now}}, nil
		default:
			e.halted = true
			e.haltedErr = srcErr
			now := e.accountNow()
			return nil, []model.AccountEvent{{Kind: model.EventHalt, Timestamp: now, Reason: srcErr.Error()}}, srcErr
		}
	}
	if trade == nil {
		// Live source is momentarily dry; idle one simulated microsecond.
		e.account.ClockTick()
		return nil, nil, nil
	}

	instrument, ok := e.symbols[trade.Symbol]
	if !ok {
		return nil, nil, nil
	}

	if !e.account.ClockAdvanceTo(trade.TimestampUs) {
		e.halted = true
		e.haltedErr = model.NewError(model.ErrDataSourceCorrupt, "trade timestamp %d precedes exchange_timestamp", trade.TimestampUs)
		slog.Error("data source corrupt", "symbol", trade.Symbol, "ts", trade.TimestampUs)
		return nil, []model.AccountEvent{{Kind: model.EventHalt, Timestamp: trade.TimestampUs, Reason: e.haltedErr.Error()}}, e.haltedErr
	}

	level := e.nextLevel(instrument, trade)
	e.account.TopOfBook().Update(instrument, level)

	marketEvents := []model.MarketEvent{{Instrument: instrument, Level: level, Trade: trade}}
	var accountEvents []model.AccountEvent

	accountEvents = append(accountEvents, e.account.MarkToMarket(instrument, level.Last)...)

	if plan := e.account.CheckLiquidation(instrument, level.Last); plan != nil {
		accountEvents = append(accountEvents, e.account.ApplyLiquidation(plan)...)
	}

	fills := e.account.Book().MatchRestingOrders(instrument, level, e.account.Config().MaxFillQtyPerTick)
	accountEvents = append(accountEvents, e.commitRestingFills(instrument, fills)...)

	e.account.ArmFunding(trade.TimestampUs)
	accountEvents = append(accountEvents, e.account.ApplyFunding(instrument, level.Last, trade.TimestampUs)...)

	return marketEvents, accountEvents, nil
}

// nextLevel derives the fresh top-of-book snapshot from one trade: the
// trade's own side names the side of the book that quoted it, a Buy
// trade sets the bid and a Sell trade sets the ask. The other side only
// initializes off it the first time, while still zero, and otherwise
// carries over from the previous snapshot untouched.
func (e *Engine) nextLevel(instrument model.Instrument, trade *model.MarketTrade) model.BookLevel {
	prev, _ := e.account.TopOfBook().Get(instrument)
	level := prev
	level.Last = trade.Price
	level.Ts = trade.TimestampUs
	switch trade.Side {
	case model.Buy:
		level.Bid = trade.Price
		if level.Ask.IsZero() {
			level.Ask = trade.Price
		}
	case model.Sell:
		level.Ask = trade.Price
		if level.Bid.IsZero() {
			level.Bid = trade.Price
		}
	}
	return level
}

// commitRestingFills applies every resting-order fill the matcher found,
// removing orders that reach a terminal state.
func (e *Engine) commitRestingFills(instrument model.Instrument, fills []book.FillInstruction) []model.AccountEvent {
	var events []model.AccountEvent
	for _, f := range fills {
		events = append(events, e.account.CommitRestingFill(f.Order, f.Price, f.Qty, f.Liquidity)...)
		if f.Order.Status.IsTerminal() {
			e.account.Book().Remove(f.Order.Id)
		}
	}
	return events
}

func (e *Engine) accountNow() int64 {
	return e.account.ClockNow()
}
