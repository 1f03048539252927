// Package config loads a session's AccountConfig from a YAML file and
// applies the defaults a bare CLI invocation relies on.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

// File is the on-disk shape of a session config. Field names mirror
// model.AccountConfig; decimals are parsed exactly via the Decimal
// wrapper rather than float64.
type File struct {
	MarginMode            string           `yaml:"margin_mode"`
	PositionDirectionMode string           `yaml:"position_direction_mode"`
	PositionMarginMode    string           `yaml:"position_margin_mode"`
	CommissionLevel       string           `yaml:"commission_level"`
	FundingRate           Decimal          `yaml:"funding_rate"`
	FundingIntervalMicros int64            `yaml:"funding_interval_micros"`
	Leverage              Decimal          `yaml:"leverage"`
	Fees                  map[string]Fee   `yaml:"fees"`
	ExecutionMode         string           `yaml:"execution_mode"`
	MaxPriceDeviation     Decimal          `yaml:"max_price_deviation"`
	LiquidationThreshold  Decimal          `yaml:"liquidation_threshold"`
	LazyAccountPositions  bool             `yaml:"lazy_account_positions"`
	MachineID             uint16           `yaml:"machine_id"`
	MaxFillQtyPerTick     Decimal          `yaml:"max_fill_qty_per_tick"`
	Symbols               map[string]Pair  `yaml:"symbols"`
	DataPath              string           `yaml:"data_path"`
}

// Fee is one commission tier's maker/taker rates.
type Fee struct {
	Maker Decimal `yaml:"maker"`
	Taker Decimal `yaml:"taker"`
}

// Pair names a feed symbol's instrument, either as base/quote
// (symbols: {ETHUSDT: {base: ETH, quote: USDT}}) or, for a future or
// option contract Base/Quote can't express, as the full rendered
// symbol string Instrument.Symbol produces
// (symbols: {ETHUSDT: {symbol: ETH-USDT-PERPETUAL}}).
type Pair struct {
	Base   string `yaml:"base"`
	Quote  string `yaml:"quote"`
	Symbol string `yaml:"symbol"`
}

// instrument resolves the pair to a model.Instrument, preferring an
// explicit Symbol over Base/Quote when both are set.
func (p Pair) instrument() (model.Instrument, error) {
	if p.Symbol != "" {
		inst, err := model.ParseInstrumentSymbol(p.Symbol)
		if err != nil {
			return model.Instrument{}, err
		}
		return inst, nil
	}
	return model.NewPerpetual(p.Base, p.Quote), nil
}

// Defaults returns a ready-to-use single-symbol backtest config, the same
// shape as the checked-in config.yaml, for callers that want to start the
// CLI harness or a test without authoring a file first.
func Defaults() File {
	f := File{
		Fees: map[string]Fee{
			"VIP0": {
				Maker: Decimal{Decimal: decimal.NewFromFloat(0.0002)},
				Taker: Decimal{Decimal: decimal.NewFromFloat(0.0005)},
			},
		},
		Symbols: map[string]Pair{
			"ETHUSDT": {Base: "ETH", Quote: "USDT"},
		},
		DataPath: "data/eth_usdt.jsonl",
	}
	f.applyDefaults()
	return f
}

// Load reads and validates a session config from path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return File{}, fmt.Errorf("config must contain a single YAML document")
		}
		return File{}, err
	}
	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

func (f *File) applyDefaults() {
	if f.MarginMode == "" {
		f.MarginMode = string(model.Cross)
	}
	if f.PositionDirectionMode == "" {
		f.PositionDirectionMode = string(model.ModeNet)
	}
	if f.PositionMarginMode == "" {
		f.PositionMarginMode = string(model.PositionCross)
	}
	if f.CommissionLevel == "" {
		f.CommissionLevel = "VIP0"
	}
	if f.ExecutionMode == "" {
		f.ExecutionMode = string(model.Backtest)
	}
	if f.Leverage.IsZero() {
		f.Leverage.Decimal = decimal.NewFromInt(1)
	}
	if f.MachineID == 0 {
		f.MachineID = 1
	}
}

// Validate rejects configs missing fields the account constructor would
// otherwise silently zero-default in a way that hides a typo.
func (f File) Validate() error {
	switch model.MarginMode(strings.ToUpper(f.MarginMode)) {
	case model.Cross, model.Isolated, model.SingleCurrencyMargin:
	default:
		return fmt.Errorf("margin_mode must be cross, isolated, or single_currency_margin")
	}
	switch model.PositionDirectionMode(strings.ToUpper(f.PositionDirectionMode)) {
	case model.ModeNet, model.ModeLongShort:
	default:
		return fmt.Errorf("position_direction_mode must be net or long_short")
	}
	switch model.PositionMarginMode(strings.ToUpper(f.PositionMarginMode)) {
	case model.PositionCross, model.PositionIsolated:
	default:
		return fmt.Errorf("position_margin_mode must be cross or isolated")
	}
	switch model.ExecutionMode(strings.ToUpper(f.ExecutionMode)) {
	case model.Backtest, model.Live:
	default:
		return fmt.Errorf("execution_mode must be backtest or live")
	}
	if len(f.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	for feedSymbol, pair := range f.Symbols {
		if _, err := pair.instrument(); err != nil {
			return fmt.Errorf("symbols.%s: %w", feedSymbol, err)
		}
	}
	if model.ExecutionMode(strings.ToUpper(f.ExecutionMode)) == model.Backtest && f.DataPath == "" {
		return fmt.Errorf("data_path is required in backtest mode")
	}
	return nil
}

// ToAccountConfig builds the immutable model.AccountConfig the account
// constructor expects.
func (f File) ToAccountConfig() model.AccountConfig {
	fees := make(model.FeesBook, len(f.Fees))
	for level, tier := range f.Fees {
		fees[model.CommissionLevel(strings.ToUpper(level))] = model.FeeTier{
			Maker: tier.Maker.Decimal, Taker: tier.Taker.Decimal,
		}
	}
	return model.AccountConfig{
		MarginMode:            model.MarginMode(strings.ToUpper(f.MarginMode)),
		PositionDirectionMode: model.PositionDirectionMode(strings.ToUpper(f.PositionDirectionMode)),
		PositionMarginMode:    model.PositionMarginMode(strings.ToUpper(f.PositionMarginMode)),
		CommissionLevel:       model.CommissionLevel(strings.ToUpper(f.CommissionLevel)),
		FundingRate:           f.FundingRate.Decimal,
		FundingIntervalMicros: f.FundingIntervalMicros,
		Leverage:              f.Leverage.Decimal,
		FeesBook:              fees,
		ExecutionMode:         model.ExecutionMode(strings.ToUpper(f.ExecutionMode)),
		MaxPriceDeviation:     f.MaxPriceDeviation.Decimal,
		LiquidationThreshold:  f.LiquidationThreshold.Decimal,
		LazyAccountPositions:  f.LazyAccountPositions,
		MachineId:             f.MachineID,
		MaxFillQtyPerTick:     f.MaxFillQtyPerTick.Decimal,
	}
}

// Dump renders the effective config (defaults already applied) back to
// YAML, exact-string, for an operator to log or diff against the file
// on disk.
func (f File) Dump() ([]byte, error) {
	return yaml.Marshal(f)
}

// Instruments builds the feed-symbol-to-Instrument map the engine needs
// from the config's Symbols block. Validate must have already rejected a
// malformed Pair.Symbol, so errors are not possible here.
func (f File) Instruments() map[string]model.Instrument {
	out := make(map[string]model.Instrument, len(f.Symbols))
	for feedSymbol, pair := range f.Symbols {
		inst, _ := pair.instrument()
		out[feedSymbol] = inst
	}
	return out
}

