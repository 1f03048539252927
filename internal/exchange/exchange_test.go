package exchange

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/account"
	"github.com/hourglass-exchange/hourglass/internal/clock"
	"github.com/hourglass-exchange/hourglass/internal/datasource"
	"github.com/hourglass-exchange/hourglass/internal/events"
	"github.com/hourglass-exchange/hourglass/internal/model"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func testAccount() *account.Account {
	cfg := model.AccountConfig{
		MarginMode: model.Cross, PositionDirectionMode: model.ModeNet,
		PositionMarginMode: model.PositionCross, CommissionLevel: "VIP0",
		Leverage: d(10),
		FeesBook: model.FeesBook{"VIP0": {Taker: d(0.0005), Maker: d(0.0002)}},
		ExecutionMode: model.Backtest, MaxPriceDeviation: d(0.1),
		LiquidationThreshold: d(0.05), MachineId: 1,
	}
	clk := clock.New(0, clock.NewConstant(0))
	return account.New(cfg, clk, uuid.New())
}

func testSymbols() map[string]model.Instrument {
	return map[string]model.Instrument{"ETHUSDT": model.NewPerpetual("ETH", "USDT")}
}

type noopSink struct{ calls int }

func (s *noopSink) Publish(events.Envelope) { s.calls++ }

func TestBuilder_InitiateSucceedsWithAllFieldsSet(t *testing.T) {
	sink := &noopSink{}
	ex, err := NewBuilder().
		Account(testAccount()).
		DataSource(datasource.NewSlice(nil)).
		Symbols(testSymbols()).
		Sink(sink).
		Initiate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Dispatcher == nil || ex.Hub == nil {
		t.Fatalf("expected a fully wired Exchange, got %+v", ex)
	}
}

func TestBuilder_InitiateFailsWithoutAccount(t *testing.T) {
	_, err := NewBuilder().
		DataSource(datasource.NewSlice(nil)).
		Symbols(testSymbols()).
		Initiate()
	if err == nil {
		t.Fatal("expected an error when account is not set")
	}
}

func TestBuilder_InitiateFailsWithoutDataSource(t *testing.T) {
	_, err := NewBuilder().
		Account(testAccount()).
		Symbols(testSymbols()).
		Initiate()
	if err == nil {
		t.Fatal("expected an error when data source is not set")
	}
}

func TestBuilder_InitiateFailsWithoutSymbols(t *testing.T) {
	_, err := NewBuilder().
		Account(testAccount()).
		DataSource(datasource.NewSlice(nil)).
		Initiate()
	if err == nil {
		t.Fatal("expected an error when no symbols are set")
	}
}

func TestBuilder_ReturnsNewBuilderEachCall(t *testing.T) {
	a := NewBuilder()
	b := NewBuilder()
	if a == b {
		t.Fatal("expected distinct Builder instances")
	}
}
