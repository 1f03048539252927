package config

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

func TestDecimal_UnmarshalYAML_ParsesFundingRate(t *testing.T) {
	var f File
	err := yaml.Unmarshal([]byte(`
data_path: data/eth_usdt.jsonl
funding_rate: "0.0001"
symbols:
  ETHUSDT:
    base: ETH
    quote: USDT
`), &f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.FundingRate.Equal(decimal.NewFromFloat(0.0001)) {
		t.Errorf("funding_rate = %s, want 0.0001", f.FundingRate.String())
	}
}

func TestDecimal_UnmarshalYAML_EmptyScalarIsZero(t *testing.T) {
	var fee Fee
	if err := yaml.Unmarshal([]byte("maker:\ntaker: \"0.0005\""), &fee); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fee.Maker.IsZero() {
		t.Errorf("expected an omitted maker rate to decode to zero, got %s", fee.Maker.String())
	}
}

func TestDecimal_UnmarshalYAML_RejectsNonScalar(t *testing.T) {
	var fee Fee
	err := yaml.Unmarshal([]byte("maker: [0.0002]"), &fee)
	if err == nil {
		t.Fatal("expected an error unmarshaling a sequence into a Decimal field")
	}
}

func TestFile_Dump_RoundTripsFeesAndLeverageExactly(t *testing.T) {
	f := Defaults()
	out, err := f.Dump()
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	var reparsed File
	if err := yaml.Unmarshal(out, &reparsed); err != nil {
		t.Fatalf("Dump() output did not re-parse: %v", err)
	}
	if !reparsed.Leverage.Equal(f.Leverage.Decimal) {
		t.Errorf("leverage round-tripped to %s, want %s", reparsed.Leverage.String(), f.Leverage.String())
	}
	takerBefore := f.Fees["VIP0"].Taker
	takerAfter := reparsed.Fees["VIP0"].Taker
	if !takerAfter.Equal(takerBefore.Decimal) {
		t.Errorf("VIP0 taker fee round-tripped to %s, want %s", takerAfter.String(), takerBefore.String())
	}
	if !strings.Contains(string(out), "0.0005") {
		t.Errorf("expected Dump() output to contain the exact taker rate, got:\n%s", out)
	}
}
