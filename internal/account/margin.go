package account

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/metrics"
	"github.com/hourglass-exchange/hourglass/internal/model"
)

// FetchPositions returns a snapshot of every open position across both
// direction modes.
func (a *Account) FetchPositions() []model.Position {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.Position, 0, len(a.netPositions))
	for _, p := range a.netPositions {
		out = append(out, *p)
	}
	for _, legs := range a.legPositions {
		for _, p := range legs {
			out = append(out, *p)
		}
	}
	return out
}

func (a *Account) allPositions() []*model.Position {
	out := make([]*model.Position, 0, len(a.netPositions))
	for _, p := range a.netPositions {
		out = append(out, p)
	}
	for _, legs := range a.legPositions {
		for _, p := range legs {
			out = append(out, p)
		}
	}
	return out
}

// MarkToMarket recomputes UnrealizedPnL for every position held in
// instrument against the freshest top-of-book snapshot. Called by the
// tick loop after every market update.
func (a *Account) MarkToMarket(instrument model.Instrument, mark decimal.Decimal) []model.AccountEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	var events []model.AccountEvent
	for _, p := range a.allPositions() {
		if p.Instrument != instrument {
			continue
		}
		p.UnrealizedPnL = realizedPnL(p.Direction, p.AvgEntryPrice, mark, p.Qty)
		events = append(events, model.AccountEvent{Kind: model.EventBalanceDelta, Timestamp: a.clock.Now(), Position: p})
	}
	return events
}

// LiquidationPlan names the positions a CheckLiquidation pass decided
// must be force-closed at the given mark price.
type LiquidationPlan struct {
	Instrument model.Instrument
	Positions  []*model.Position
	MarkPrice  decimal.Decimal
}

// liquidationPrice implements liquidation_price = entry * (1 - threshold/leverage)
// for longs and entry * (1 + threshold/leverage) for shorts.
func liquidationPrice(dir model.Direction, entry, threshold, leverage decimal.Decimal) decimal.Decimal {
	if leverage.LessThanOrEqual(decimal.Zero) {
		leverage = decimal.NewFromInt(1)
	}
	factor := threshold.Div(leverage)
	if dir == model.Long {
		return entry.Mul(decimal.NewFromInt(1).Sub(factor))
	}
	return entry.Mul(decimal.NewFromInt(1).Add(factor))
}

// CheckLiquidation evaluates every open position against the current
// mark price and returns the set that must be force-closed. Isolated
// positions are evaluated individually against their own liquidation
// price; Cross positions share the account's pooled equity and liquidate
// together once the account-wide margin ratio breaches the threshold.
func (a *Account) CheckLiquidation(instrument model.Instrument, mark decimal.Decimal) *LiquidationPlan {
	a.mu.Lock()
	defer a.mu.Unlock()

	var isolated []*model.Position
	var crossAtRisk bool
	var crossPositions []*model.Position

	for _, p := range a.allPositions() {
		if p.Instrument != instrument {
			continue
		}
		if a.config.PositionMarginMode == model.PositionIsolated {
			lp := liquidationPrice(p.Direction, p.AvgEntryPrice, a.config.LiquidationThreshold, p.Leverage)
			breached := (p.Direction == model.Long && mark.LessThanOrEqual(lp)) ||
				(p.Direction == model.Short && mark.GreaterThanOrEqual(lp))
			if breached {
				isolated = append(isolated, p)
			}
			continue
		}
		crossPositions = append(crossPositions, p)
	}

	if len(crossPositions) > 0 {
		equity, required := a.marginSnapshot()
		if required.GreaterThan(decimal.Zero) {
			ratio := equity.Div(required)
			metrics.MarginRatio.Set(ratio.InexactFloat64())
			if ratio.LessThanOrEqual(a.config.LiquidationThreshold) {
				crossAtRisk = true
			}
		}
	}

	var toLiquidate []*model.Position
	toLiquidate = append(toLiquidate, isolated...)
	if crossAtRisk {
		toLiquidate = append(toLiquidate, crossPositions...)
	}
	if len(toLiquidate) == 0 {
		return nil
	}
	return &LiquidationPlan{Instrument: instrument, Positions: toLiquidate, MarkPrice: mark}
}

// marginSnapshot computes account-wide equity (the sum of every asset
// balance's Total plus unrealized P&L across every open position) and
// the margin those positions have locked. Caller must hold a.mu.
func (a *Account) marginSnapshot() (equity, required decimal.Decimal) {
	equity = decimal.Zero
	for _, b := range a.balances {
		equity = equity.Add(b.Total)
	}
	for _, p := range a.allPositions() {
		equity = equity.Add(p.UnrealizedPnL)
		required = required.Add(p.MarginLocked)
	}
	return equity, required
}

// ApplyLiquidation force-closes every position in plan at plan.MarkPrice,
// realizing P&L, releasing margin and archiving an ExitedPosition with
// ExitReason Liquidation for each. Unlike a normal offsetting fill this
// bypasses the order book entirely — liquidation is not a client order.
func (a *Account) ApplyLiquidation(plan *LiquidationPlan) []model.AccountEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	var events []model.AccountEvent
	for _, p := range plan.Positions {
		quote := p.Instrument.Quote
		pnl := realizedPnL(p.Direction, p.AvgEntryPrice, plan.MarkPrice, p.Qty)

		a.release(quote, p.MarginLocked)
		a.creditRealizedPnL(quote, pnl)

		exited := model.ExitedPosition{
			Instrument: p.Instrument, Direction: p.Direction, Qty: p.Qty,
			AvgEntryPrice: p.AvgEntryPrice, ExitPrice: plan.MarkPrice, RealizedPnL: pnl,
			ExitReason: model.Liquidation, OpenTs: p.OpenTs, CloseTs: now,
		}
		a.exited = append(a.exited, exited)
		a.removePosition(p)
		metrics.LiquidationsTotal.WithLabelValues(p.Instrument.Symbol()).Inc()

		slog.Info("position liquidated",
			"instrument", p.Instrument.Symbol(),
			"direction", p.Direction,
			"qty", p.Qty.String(),
			"entry", p.AvgEntryPrice.String(),
			"mark", plan.MarkPrice.String(),
			"realized_pnl", pnl.String(),
		)

		events = append(events,
			model.AccountEvent{Kind: model.EventLiquidation, Timestamp: now, ExitedPosition: &exited},
		)
	}
	return events
}

func (a *Account) removePosition(p *model.Position) {
	if existing, ok := a.netPositions[p.Instrument]; ok && existing == p {
		delete(a.netPositions, p.Instrument)
		return
	}
	if legs, ok := a.legPositions[p.Instrument]; ok {
		delete(legs, p.Direction)
	}
}
