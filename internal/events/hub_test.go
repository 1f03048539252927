package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/account"
	"github.com/hourglass-exchange/hourglass/internal/clock"
	"github.com/hourglass-exchange/hourglass/internal/datasource"
	"github.com/hourglass-exchange/hourglass/internal/dispatcher"
	"github.com/hourglass-exchange/hourglass/internal/engine"
	"github.com/hourglass-exchange/hourglass/internal/model"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

type fakeSink struct {
	received chan Envelope
}

func newFakeSink() *fakeSink { return &fakeSink{received: make(chan Envelope, 16)} }

func (f *fakeSink) Publish(env Envelope) { f.received <- env }

func newTestDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	ethUsdt := model.NewPerpetual("ETH", "USDT")
	trades := []model.MarketTrade{
		{Symbol: "ETHUSDT", Side: model.Buy, Price: d(2000), Amount: d(1), TimestampUs: 1_000_100},
	}
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
	eng := engine.New(acc, src, symbols)
	return dispatcher.New(acc, eng, 16)
}

func TestHub_PublishFansOutToRegisteredSinks(t *testing.T) {
	h := NewHub()
	sink := newFakeSink()
	h.Subscribe(sink)

	h.Publish(Envelope{Type: "market"})

	select {
	case env := <-sink.received:
		if env.Type != "market" {
			t.Fatalf("expected market envelope, got %+v", env)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the subscribed sink to receive the published envelope")
	}
}

func TestHub_PumpForwardsDispatcherEvents(t *testing.T) {
	disp := newTestDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go disp.Run(ctx)

	h := NewHub()
	sink := newFakeSink()
	h.Subscribe(sink)
	go h.Run(ctx, disp)

	roll := dispatcher.NewRequest(dispatcher.ReqLetItRoll)
	disp.Requests() <- roll
	select {
	case <-roll.Response:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for LetItRoll response")
	}

	select {
	case env := <-sink.received:
		if env.Type != "market" {
			t.Fatalf("expected a market envelope forwarded from the dispatcher, got %+v", env)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the hub's pump to forward the tick's market event")
	}
}
