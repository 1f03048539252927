package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o644); err != nil {
		t.Fatalf("write temp config failed: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
data_path: data/eth_usdt.jsonl
symbols:
  ETHUSDT:
    base: ETH
    quote: USDT
fees:
  VIP0:
    maker: "0.0002"
    taker: "0.0005"
`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.MarginMode != string(model.Cross) {
		t.Errorf("margin_mode defaulted to %q, want %q", f.MarginMode, model.Cross)
	}
	if f.PositionDirectionMode != string(model.ModeNet) {
		t.Errorf("position_direction_mode defaulted to %q, want %q", f.PositionDirectionMode, model.ModeNet)
	}
	if !f.Leverage.Equal(decimal.NewFromInt(1)) {
		t.Errorf("leverage defaulted to %s, want 1", f.Leverage.String())
	}
	if f.MachineID != 1 {
		t.Errorf("machine_id defaulted to %d, want 1", f.MachineID)
	}
}

func TestDefaults_IsReadyToUse(t *testing.T) {
	f := Defaults()
	if err := f.Validate(); err != nil {
		t.Fatalf("Defaults() failed Validate(): %v", err)
	}
	if f.DataPath == "" {
		t.Error("expected Defaults() to set a data_path")
	}
	cfg := f.ToAccountConfig()
	if !cfg.Leverage.Equal(decimal.NewFromInt(1)) {
		t.Errorf("leverage = %s, want 1", cfg.Leverage.String())
	}
	if _, ok := f.Instruments()["ETHUSDT"]; !ok {
		t.Error("expected Defaults() to configure ETHUSDT")
	}
}

func TestLoad_AcceptsExplicitSymbolShorthand(t *testing.T) {
	path := writeTempConfig(t, `
data_path: data/eth_usdt.jsonl
symbols:
  ETHUSDT:
    symbol: ETH-USDT-PERPETUAL
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	eth, ok := f.Instruments()["ETHUSDT"]
	if !ok || eth.Symbol() != "ETH-USDT-PERPETUAL" {
		t.Fatalf("expected ETHUSDT to map to ETH-USDT-PERPETUAL, got %+v", f.Instruments())
	}
}

func TestLoad_RejectsMalformedSymbolShorthand(t *testing.T) {
	path := writeTempConfig(t, `
data_path: data/eth_usdt.jsonl
symbols:
  ETHUSDT:
    symbol: not-a-symbol
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a malformed symbol shorthand")
	}
}

func TestLoad_RejectsMissingSymbols(t *testing.T) {
	path := writeTempConfig(t, `
data_path: data/eth_usdt.jsonl
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error when no symbols are configured")
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeTempConfig(t, `
data_path: data/eth_usdt.jsonl
symbols:
  ETHUSDT:
    base: ETH
    quote: USDT
bogus_field: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unrecognized field")
	}
}

func TestToAccountConfig_CarriesFeesAndLeverage(t *testing.T) {
	path := writeTempConfig(t, `
leverage: "10"
commission_level: vip0
data_path: data/eth_usdt.jsonl
symbols:
  ETHUSDT:
    base: ETH
    quote: USDT
fees:
  VIP0:
    maker: "0.0002"
    taker: "0.0005"
`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg := f.ToAccountConfig()
	if !cfg.Leverage.Equal(decimal.NewFromInt(10)) {
		t.Errorf("leverage = %s, want 10", cfg.Leverage.String())
	}
	rate := cfg.FeesBook.Rate(cfg.CommissionLevel, model.Taker)
	if !rate.Equal(decimal.NewFromFloat(0.0005)) {
		t.Errorf("taker rate = %s, want 0.0005", rate.String())
	}

	instruments := f.Instruments()
	eth, ok := instruments["ETHUSDT"]
	if !ok || eth.Symbol() != "ETH-USDT-PERPETUAL" {
		t.Fatalf("expected ETHUSDT to map to ETH-USDT-PERPETUAL, got %+v", instruments)
	}
}
