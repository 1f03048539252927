package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/account"
	"github.com/hourglass-exchange/hourglass/internal/clock"
	"github.com/hourglass-exchange/hourglass/internal/datasource"
	"github.com/hourglass-exchange/hourglass/internal/model"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

var ethUsdt = model.NewPerpetual("ETH", "USDT")

func newTestEngine(trades []model.MarketTrade) (*Engine, *account.Account) {
	cfg := model.AccountConfig{
		MarginMode: model.Cross, PositionDirectionMode: model.ModeNet,
		PositionMarginMode: model.PositionCross, CommissionLevel: "VIP0",
		Leverage: d(10),
		FeesBook: model.FeesBook{"VIP0": {Taker: d(0.0005), Maker: d(0.0002)}},
		ExecutionMode: model.Backtest, MaxPriceDeviation: d(0.1),
		LiquidationThreshold: d(0.05), MachineId: 1,
	}
	clk := clock.New(1_000_000, clock.NewConstant(0))
	acc := account.New(cfg, clk, uuid.New())
	src := datasource.NewSlice(trades)
	symbols := map[string]model.Instrument{"ETHUSDT": ethUsdt}
	return New(acc, src, symbols), acc
}

func TestTick_UpdatesTopOfBookFromTrade(t *testing.T) {
	trades := []model.MarketTrade{
		{Symbol: "ETHUSDT", Side: model.Buy, Price: d(2000), Amount: d(1), TimestampUs: 1_000_100},
	}
	e, acc := newTestEngine(trades)

	marketEvents, _, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(marketEvents) != 1 {
		t.Fatalf("expected one market event, got %d", len(marketEvents))
	}
	level, ok := acc.TopOfBook().Get(ethUsdt)
	if !ok || !level.Last.Equal(d(2000)) {
		t.Fatalf("expected last price 2000, got %+v", level)
	}
	if acc.ClockNow() != 1_000_100 {
		t.Errorf("expected clock advanced to trade timestamp, got %d", acc.ClockNow())
	}
}

func TestTick_BuyTradeSetsBidSellTradeSetsAsk(t *testing.T) {
	trades := []model.MarketTrade{
		{Symbol: "ETHUSDT", Side: model.Buy, Price: d(2000), Amount: d(1), TimestampUs: 1_000_100},
		{Symbol: "ETHUSDT", Side: model.Sell, Price: d(2010), Amount: d(1), TimestampUs: 1_000_200},
	}
	e, acc := newTestEngine(trades)

	if _, _, err := e.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error on first tick: %v", err)
	}
	level, ok := acc.TopOfBook().Get(ethUsdt)
	if !ok {
		t.Fatalf("expected a top-of-book snapshot after the first tick")
	}
	if !level.Bid.Equal(d(2000)) {
		t.Errorf("expected a Buy trade to set Bid to 2000, got %s", level.Bid)
	}
	if !level.Ask.Equal(d(2000)) {
		t.Errorf("expected Ask to initialize to the first trade's price, got %s", level.Ask)
	}

	if _, _, err := e.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error on second tick: %v", err)
	}
	level, _ = acc.TopOfBook().Get(ethUsdt)
	if !level.Ask.Equal(d(2010)) {
		t.Errorf("expected a Sell trade to set Ask to 2010, got %s", level.Ask)
	}
	if !level.Bid.Equal(d(2000)) {
		t.Errorf("expected Bid to carry over from the prior snapshot, got %s", level.Bid)
	}
}

func TestTick_FillsRestingOrderAgainstFreshTopOfBook(t *testing.T) {
	trades := []model.MarketTrade{
		{Symbol: "ETHUSDT", Side: model.Sell, Price: d(1900), Amount: d(1), TimestampUs: 1_000_100},
	}
	e, acc := newTestEngine(trades)
	if _, err := acc.Deposit("USDT", d(10000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	acc.TopOfBook().Update(ethUsdt, model.BookLevel{Bid: d(1990), Ask: d(2000), Last: d(1995)})

	order, _, err := acc.OpenOrder(account.OpenOrderRequest{
		Instrument: ethUsdt, Side: model.Buy, Kind: model.Limit, Price: d(1950), Qty: d(1),
	})
	if err != nil {
		t.Fatalf("unexpected error opening resting order: %v", err)
	}
	if order.Status != model.Open {
		t.Fatalf("expected order to rest, got %s", order.Status)
	}

	_, accountEvents, tickErr := e.Tick(context.Background())
	if tickErr != nil {
		t.Fatalf("unexpected tick error: %v", tickErr)
	}

	found := false
	for _, ev := range accountEvents {
		if ev.Kind == model.EventTrade {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a trade event from the resting fill, got %+v", accountEvents)
	}

	positions := acc.FetchPositions()
	if len(positions) != 1 || !positions[0].Qty.Equal(d(1)) {
		t.Fatalf("expected a filled long position, got %+v", positions)
	}
}

func TestTick_ExhaustedSourceEmitsEndOfStream(t *testing.T) {
	e, _ := newTestEngine(nil)

	_, events, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Kind != model.EventEndOfStream {
		t.Fatalf("expected EndOfStream event, got %+v", events)
	}

	_, events, err = e.Tick(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on idle tick after exhaustion: %v", err)
	}
	if len(events) != 1 || events[0].Kind != model.EventEndOfStream {
		t.Fatalf("expected repeated EndOfStream while idling, got %+v", events)
	}
}

func TestTick_NonMonotonicTimestampHalts(t *testing.T) {
	trades := []model.MarketTrade{
		{Symbol: "ETHUSDT", Side: model.Buy, Price: d(2000), Amount: d(1), TimestampUs: 500}, // before clock start
	}
	e, _ := newTestEngine(trades)

	_, events, err := e.Tick(context.Background())
	if err == nil || err.Kind != model.ErrDataSourceCorrupt {
		t.Fatalf("expected ErrDataSourceCorrupt, got %v", err)
	}
	if len(events) != 1 || events[0].Kind != model.EventHalt {
		t.Fatalf("expected a Halt event, got %+v", events)
	}
	halted, haltErr := e.Halted()
	if !halted || haltErr == nil {
		t.Error("expected engine to report halted state")
	}

	_, _, err = e.Tick(context.Background())
	if err == nil {
		t.Error("expected subsequent ticks to keep returning the halt error")
	}
}

func TestTick_UnknownSymbolIgnored(t *testing.T) {
	trades := []model.MarketTrade{
		{Symbol: "BTCUSDT", Side: model.Buy, Price: d(50000), Amount: d(1), TimestampUs: 1_000_100},
	}
	e, _ := newTestEngine(trades)

	marketEvents, accountEvents, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(marketEvents) != 0 || len(accountEvents) != 0 {
		t.Errorf("expected no events for an unmapped symbol, got market=%+v account=%+v", marketEvents, accountEvents)
	}
}
