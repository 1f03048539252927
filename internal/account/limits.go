package account

import (
	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

// checkPriceDeviation is a pure decimal check over a price and a
// reference, mirroring the pack's one-exported-function-over-decimals
// limiter shape: it rejects an order price that strays further than
// maxDeviation from ref rather than letting a fat-fingered or stale
// limit price cross. A zero ref or zero maxDeviation disables the check.
func checkPriceDeviation(price, ref, maxDeviation decimal.Decimal) *model.ExchangeError {
	if ref.IsZero() || maxDeviation.IsZero() {
		return nil
	}
	deviation := price.Sub(ref).Abs().Div(ref)
	if deviation.GreaterThan(maxDeviation) {
		return model.NewError(model.ErrPriceDeviationExceeded, "price %s deviates %s from reference %s", price, deviation, ref)
	}
	return nil
}
