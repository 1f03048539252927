package account

import (
	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

// DueFunding reports whether a funding payment is due at ts, given the
// configured interval. Funding falls due once ts reaches the next
// scheduled time (the armed start time plus a whole number of
// intervals) and is never pro-rated between ticks.
func (a *Account) DueFunding(ts int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dueFundingLocked(ts)
}

func (a *Account) dueFundingLocked(ts int64) bool {
	if a.config.FundingIntervalMicros <= 0 {
		return false
	}
	if a.nextFundingTs == 0 {
		return false // first tick only arms the schedule, see ArmFunding.
	}
	return ts >= a.nextFundingTs
}

// ArmFunding seeds the first funding timestamp relative to the session's
// start time. Call once when the engine begins processing the stream.
func (a *Account) ArmFunding(startTs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.config.FundingIntervalMicros > 0 && a.nextFundingTs == 0 {
		a.nextFundingTs = startTs + a.config.FundingIntervalMicros
	}
}

// ApplyFunding pays funding on every open position in instrument at the
// configured rate against mark, then arms the next interval. Positive
// FundingRate means longs pay shorts.
func (a *Account) ApplyFunding(instrument model.Instrument, mark decimal.Decimal, ts int64) []model.AccountEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.dueFundingLocked(ts) {
		return nil
	}

	var events []model.AccountEvent
	for _, p := range a.allPositions() {
		if p.Instrument != instrument {
			continue
		}
		notional := p.Qty.Mul(mark)
		payment := notional.Mul(a.config.FundingRate)
		if p.Direction == model.Long {
			payment = payment.Neg()
		}
		a.creditRealizedPnL(instrument.Quote, payment)
		events = append(events, model.AccountEvent{
			Kind: model.EventFunding, Timestamp: ts, Position: p,
			Reason: payment.String(),
		})
	}

	a.nextFundingTs += a.config.FundingIntervalMicros
	return events
}
