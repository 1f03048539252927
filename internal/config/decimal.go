package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Decimal wraps decimal.Decimal so every monetary field in File —
// FundingRate, Leverage, the Fee tiers, MaxPriceDeviation,
// LiquidationThreshold, MaxFillQtyPerTick — decodes a YAML scalar like
// "0.0005" exactly rather than round-tripping through float64.
type Decimal struct {
	decimal.Decimal
}

// UnmarshalYAML rejects anything but a scalar node; an empty scalar
// (an omitted `leverage:` value, say) decodes to zero rather than an
// error, matching applyDefaults' "zero means unset" convention.
func (d *Decimal) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("decimal must be a scalar")
	}
	if value.Value == "" {
		d.Decimal = decimal.Zero
		return nil
	}
	dec, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", value.Value, err)
	}
	d.Decimal = dec
	return nil
}

// MarshalYAML round-trips a File back to disk, exact-string, the way an
// operator inspecting a running session's resolved config (defaults
// applied) would expect "0.0005" back rather than "0.000500000001".
func (d Decimal) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
