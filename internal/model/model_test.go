package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestNewToken_InternsAndUppercases(t *testing.T) {
	a := NewToken("usdt")
	b := NewToken("USDT")
	if a != b {
		t.Errorf("expected interned tokens to be equal, got %v != %v", a, b)
	}
	if a.String() != "USDT" {
		t.Errorf("expected uppercase symbol, got %s", a.String())
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	terminal := []OrderStatus{Filled, Cancelled, Rejected, Liquidated}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	nonTerminal := []OrderStatus{Pending, Open, PartiallyFilled}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestExchangeError_IsMatchesByKind(t *testing.T) {
	err := NewError(ErrInsufficientFunds, "need %s more USDT", d(10).String())
	if !errors.Is(err, ErrInsufficientFundsSentinel) {
		t.Errorf("expected errors.Is to match by kind, got %v", err)
	}
	if errors.Is(err, ErrUnknownOrderSentinel) {
		t.Error("expected no match for a different kind")
	}
}

func TestFeesBook_Rate(t *testing.T) {
	fb := FeesBook{
		"LV1": {Taker: d(0.0005), Maker: d(0.0002)},
	}
	if got := fb.Rate("LV1", Taker); !got.Equal(d(0.0005)) {
		t.Errorf("expected taker rate 0.0005, got %s", got)
	}
	if got := fb.Rate("LV1", Maker); !got.Equal(d(0.0002)) {
		t.Errorf("expected maker rate 0.0002, got %s", got)
	}
	if got := fb.Rate("UNKNOWN", Taker); !got.IsZero() {
		t.Errorf("expected zero rate for unknown level, got %s", got)
	}
}

func TestBookLevel_Mid(t *testing.T) {
	l := BookLevel{Bid: d(16300), Ask: d(16500)}
	if got := l.Mid(); !got.Equal(d(16400)) {
		t.Errorf("expected mid 16400, got %s", got)
	}
	lastOnly := BookLevel{Last: d(100)}
	if got := lastOnly.Mid(); !got.Equal(d(100)) {
		t.Errorf("expected fallback to Last, got %s", got)
	}
}

func TestSide_OppositeAndSign(t *testing.T) {
	if Buy.Opposite() != Sell {
		t.Error("expected Buy.Opposite() == Sell")
	}
	if Sell.Opposite() != Buy {
		t.Error("expected Sell.Opposite() == Buy")
	}
	if Buy.Sign() != 1 || Sell.Sign() != -1 {
		t.Error("unexpected side sign")
	}
}

func TestInstrument_Symbol(t *testing.T) {
	i := NewPerpetual("eth", "usdt")
	if got := i.Symbol(); got != "ETH-USDT-PERPETUAL" {
		t.Errorf("expected ETH-USDT-PERPETUAL, got %s", got)
	}
}

func TestParseInstrumentSymbol_RoundTripsSymbol(t *testing.T) {
	want := NewPerpetual("eth", "usdt")
	got, err := ParseInstrumentSymbol(want.Symbol())
	if err != nil {
		t.Fatalf("ParseInstrumentSymbol() error = %v", err)
	}
	if got != want {
		t.Errorf("ParseInstrumentSymbol(%q) = %+v, want %+v", want.Symbol(), got, want)
	}
}

func TestParseInstrumentSymbol_RejectsMalformed(t *testing.T) {
	for _, sym := range []string{"ETHUSDT", "ETH-USDT", "ETH-USDT-SWAP", ""} {
		if _, err := ParseInstrumentSymbol(sym); err == nil || err.Kind != ErrUnknownInstrument {
			t.Errorf("ParseInstrumentSymbol(%q) = _, %v, want ErrUnknownInstrument", sym, err)
		}
	}
}
