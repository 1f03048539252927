// Package datasource defines the inbound market-trade cursor the tick
// loop pulls from, plus a finite in-memory implementation for backtests
// and a channel-backed implementation for a live feed.
package datasource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

// Source is the market-trade cursor the engine's tick loop consumes.
// Next returns the next trade in timestamp order. A nil trade with a nil
// error means the source is temporarily dry and the caller should retry
// later (neither Slice nor Channel returns this: Channel blocks instead);
// ErrDataSourceExhausted means the source is permanently done (Slice
// once consumed, Channel once its trade channel is closed).
type Source interface {
	Next(ctx context.Context) (*model.MarketTrade, *model.ExchangeError)
}

// Slice is a finite, ordered in-memory trade sequence — the backtest
// case. Trades must already be sorted by TimestampUs; Next returns them
// one at a time and ErrDataSourceExhausted once the slice is consumed.
type Slice struct {
	trades []model.MarketTrade
	pos    int
}

// NewSlice wraps an already timestamp-sorted trade sequence.
func NewSlice(trades []model.MarketTrade) *Slice {
	return &Slice{trades: trades}
}

// Next returns the next trade, or ErrDataSourceExhausted once every
// trade has been consumed. It never blocks.
func (s *Slice) Next(_ context.Context) (*model.MarketTrade, *model.ExchangeError) {
	if s.pos >= len(s.trades) {
		return nil, model.NewError(model.ErrDataSourceExhausted, "slice source exhausted after %d trades", len(s.trades))
	}
	t := s.trades[s.pos]
	s.pos++
	return &t, nil
}

// Remaining reports how many trades are left unconsumed.
func (s *Slice) Remaining() int { return len(s.trades) - s.pos }

// Channel adapts a live producer's channel into a Source. The producer
// closes trades to signal permanent exhaustion; a send failure or
// malformed trade upstream should be surfaced by closing errs with
// ErrDataSourceCorrupt instead of silently dropping it.
type Channel struct {
	trades <-chan model.MarketTrade
	errs   <-chan *model.ExchangeError
}

// NewChannel wraps a live trade channel. errs may be nil if the producer
// never reports corruption.
func NewChannel(trades <-chan model.MarketTrade, errs <-chan *model.ExchangeError) *Channel {
	return &Channel{trades: trades, errs: errs}
}

// Next blocks until a trade arrives, the channel closes (Exhausted), the
// error channel fires (Corrupt), or ctx is cancelled.
func (c *Channel) Next(ctx context.Context) (*model.MarketTrade, *model.ExchangeError) {
	select {
	case <-ctx.Done():
		return nil, model.NewError(model.ErrDataSourceCorrupt, "context cancelled: %v", ctx.Err())
	case t, ok := <-c.trades:
		if !ok {
			return nil, model.NewError(model.ErrDataSourceExhausted, "live trade channel closed")
		}
		return &t, nil
	case err := <-c.errs:
		if err != nil {
			return nil, err
		}
		return nil, model.NewError(model.ErrDataSourceCorrupt, "live error channel closed")
	}
}

// tradeLine is the on-disk shape of one DecodeJSONLines record.
type tradeLine struct {
	Exchange    string          `json:"exchange"`
	Symbol      string          `json:"symbol"`
	Side        model.Side      `json:"side"`
	Price       decimal.Decimal `json:"price"`
	Amount      decimal.Decimal `json:"amount"`
	TimestampUs int64           `json:"timestamp_us"`
}

// DecodeJSONLines parses a newline-delimited JSON trade feed, one
// tradeLine object per line, into timestamp-ordered MarketTrades. Blank
// lines are skipped; a malformed line fails the whole decode rather than
// silently dropping a trade out from under a backtest.
func DecodeJSONLines(data []byte) ([]model.MarketTrade, error) {
	var trades []model.MarketTrade
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var tl tradeLine
		if err := json.Unmarshal(line, &tl); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		trades = append(trades, model.MarketTrade{
			Exchange:    tl.Exchange,
			Symbol:      tl.Symbol,
			Side:        tl.Side,
			Price:       tl.Price,
			Amount:      tl.Amount,
			TimestampUs: tl.TimestampUs,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return trades, nil
}
