package account

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/metrics"
	"github.com/hourglass-exchange/hourglass/internal/model"
)

// applyFill commits one matched fill: it builds the fill's Trade (carried
// on the returned Trade event; the account keeps no trade log), debits the fee,
// updates the owning position (opening, averaging, offsetting or
// flipping it) and returns the AccountEvents the fill produced. order is
// mutated in place (FilledQty, LockedAmount).
func (a *Account) applyFill(order *model.Order, price, qty decimal.Decimal, liquidity model.Liquidity, now int64) []model.AccountEvent {
	notional := price.Mul(qty)
	fee := notional.Mul(a.config.FeesBook.Rate(a.config.CommissionLevel, liquidity))
	leverage := a.config.Leverage
	if leverage.LessThanOrEqual(decimal.Zero) {
		leverage = decimal.NewFromInt(1)
	}
	margin := notional.Div(leverage)

	quote := order.Instrument.Quote
	a.debitFee(quote, fee)
	consumed := fee.Add(margin)
	if consumed.GreaterThan(order.LockedAmount) {
		consumed = order.LockedAmount
	}
	order.LockedAmount = order.LockedAmount.Sub(consumed)
	order.FilledQty = order.FilledQty.Add(qty)

	trade := model.Trade{
		TradeId:    a.book.NextTradeId(),
		OrderId:    order.Id,
		Instrument: order.Instrument,
		Side:       order.Side,
		Price:      price,
		Qty:        qty,
		FeeAsset:   quote,
		Fee:        fee,
		Liquidity:  liquidity,
		Timestamp:  now,
	}

	slog.Info("trade executed",
		"trade_id", trade.TradeId,
		"order_id", order.Id.String(),
		"instrument", order.Instrument.Symbol(),
		"side", order.Side,
		"qty", qty.String(),
		"price", price.String(),
		"fee", fee.String(),
		"liquidity", liquidity,
	)
	metrics.TradesTotal.WithLabelValues(order.Instrument.Symbol(), string(liquidity)).Inc()

	events := []model.AccountEvent{{Kind: model.EventTrade, Timestamp: now, Order: order, Trade: &trade}}

	var position *model.Position
	var exited *model.ExitedPosition
	if a.config.PositionDirectionMode == model.ModeLongShort {
		position, exited = a.applyLongShortFill(order.Instrument, order.PositionSide, order.Side, price, qty, margin, leverage, now)
	} else {
		position, exited = a.applyNetFill(order.Instrument, order.Side, price, qty, margin, leverage, now)
	}
	if position != nil {
		events = append(events, model.AccountEvent{Kind: model.EventBalanceDelta, Timestamp: now, Position: position})
	}
	if exited != nil {
		a.exited = append(a.exited, *exited)
		events = append(events, model.AccountEvent{Kind: model.EventBalanceDelta, Timestamp: now, ExitedPosition: exited})
	}
	return events
}

// CommitRestingFill applies one fill the tick loop's matcher found
// against an order that was already resting in the book, updating its
// status and releasing any now-unused reserve once it reaches a
// terminal state. Unlike OpenOrder's immediate match, the caller is
// responsible for removing the order from the book once terminal.
func (a *Account) CommitRestingFill(order *model.Order, price, qty decimal.Decimal, liquidity model.Liquidity) []model.AccountEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	events := a.applyFill(order, price, qty, liquidity, now)

	if order.RemainingQty().IsZero() {
		order.Status = model.Filled
		a.release(order.LockedAsset, order.LockedAmount)
		order.LockedAmount = decimal.Zero
	} else {
		order.Status = model.PartiallyFilled
	}
	return events
}

func directionOf(side model.Side) model.Direction {
	if side == model.Buy {
		return model.Long
	}
	return model.Short
}

// applyNetFill updates the single Net-mode position for an instrument,
// averaging same-direction fills and realizing P&L on offsetting ones,
// flipping direction when a fill overshoots the existing size.
func (a *Account) applyNetFill(instrument model.Instrument, side model.Side, price, qty, margin, leverage decimal.Decimal, now int64) (*model.Position, *model.ExitedPosition) {
	quote := instrument.Quote
	fillDir := directionOf(side)
	pos := a.netPositions[instrument]

	if pos == nil || pos.Qty.IsZero() {
		pos = &model.Position{
			Instrument: instrument, Direction: fillDir, Qty: qty,
			AvgEntryPrice: price, MarginLocked: margin, Leverage: leverage, OpenTs: now,
		}
		a.netPositions[instrument] = pos
		return pos, nil
	}

	if pos.Direction == fillDir {
		newQty := pos.Qty.Add(qty)
		pos.AvgEntryPrice = pos.AvgEntryPrice.Mul(pos.Qty).Add(price.Mul(qty)).Div(newQty)
		pos.Qty = newQty
		pos.MarginLocked = pos.MarginLocked.Add(margin)
		return pos, nil
	}

	// Opposing fill: offsets, possibly fully closes, possibly flips.
	closeQty := minDec(qty, pos.Qty)
	pnl := realizedPnL(pos.Direction, pos.AvgEntryPrice, price, closeQty)
	marginReleased := pos.MarginLocked.Mul(closeQty).Div(pos.Qty)

	a.release(quote, marginReleased)
	a.creditRealizedPnL(quote, pnl)
	pos.RealizedPnL = pos.RealizedPnL.Add(pnl)
	pos.Qty = pos.Qty.Sub(closeQty)
	pos.MarginLocked = pos.MarginLocked.Sub(marginReleased)

	var exited *model.ExitedPosition
	if pos.Qty.IsZero() {
		exited = &model.ExitedPosition{
			Instrument: instrument, Direction: pos.Direction, Qty: closeQty,
			AvgEntryPrice: pos.AvgEntryPrice, ExitPrice: price, RealizedPnL: pnl,
			ExitReason: model.OffsetFill, OpenTs: pos.OpenTs, CloseTs: now,
		}
		delete(a.netPositions, instrument)
	}

	remainder := qty.Sub(closeQty)
	if remainder.LessThanOrEqual(decimal.Zero) {
		if pos.Qty.IsZero() {
			return nil, exited
		}
		return pos, exited
	}

	// Flip: the fill overshoots the existing position, opening the
	// opposite direction with the leftover quantity.
	flipMargin := margin.Mul(remainder).Div(qty)
	flipped := &model.Position{
		Instrument: instrument, Direction: fillDir, Qty: remainder,
		AvgEntryPrice: price, MarginLocked: flipMargin, Leverage: leverage, OpenTs: now,
	}
	a.netPositions[instrument] = flipped
	return flipped, exited
}

// applyLongShortFill updates one independent leg, keyed by positionSide.
// Buy+Long / Sell+Short open or grow a leg; Sell+Long / Buy+Short reduce
// it. OpenOrder already validated that a closing fill cannot exceed the
// leg's current size.
func (a *Account) applyLongShortFill(instrument model.Instrument, positionSide model.Direction, side model.Side, price, qty, margin, leverage decimal.Decimal, now int64) (*model.Position, *model.ExitedPosition) {
	quote := instrument.Quote
	if positionSide == "" {
		positionSide = directionOf(side)
	}
	legs, ok := a.legPositions[instrument]
	if !ok {
		legs = make(map[model.Direction]*model.Position)
		a.legPositions[instrument] = legs
	}
	pos := legs[positionSide]

	if isClosingLeg(side, positionSide) {
		if pos == nil || pos.Qty.IsZero() {
			return nil, nil
		}
		closeQty := minDec(qty, pos.Qty)
		pnl := realizedPnL(pos.Direction, pos.AvgEntryPrice, price, closeQty)
		marginReleased := pos.MarginLocked.Mul(closeQty).Div(pos.Qty)

		a.release(quote, marginReleased)
		a.creditRealizedPnL(quote, pnl)
		pos.RealizedPnL = pos.RealizedPnL.Add(pnl)
		pos.Qty = pos.Qty.Sub(closeQty)
		pos.MarginLocked = pos.MarginLocked.Sub(marginReleased)

		if pos.Qty.IsZero() {
			exited := &model.ExitedPosition{
				Instrument: instrument, Direction: pos.Direction, Qty: closeQty,
				AvgEntryPrice: pos.AvgEntryPrice, ExitPrice: price, RealizedPnL: pnl,
				ExitReason: model.OffsetFill, OpenTs: pos.OpenTs, CloseTs: now,
			}
			delete(legs, positionSide)
			return nil, exited
		}
		return pos, nil
	}

	if pos == nil || pos.Qty.IsZero() {
		pos = &model.Position{
			Instrument: instrument, Direction: positionSide, Qty: qty,
			AvgEntryPrice: price, MarginLocked: margin, Leverage: leverage, OpenTs: now,
		}
		legs[positionSide] = pos
		return pos, nil
	}
	newQty := pos.Qty.Add(qty)
	pos.AvgEntryPrice = pos.AvgEntryPrice.Mul(pos.Qty).Add(price.Mul(qty)).Div(newQty)
	pos.Qty = newQty
	pos.MarginLocked = pos.MarginLocked.Add(margin)
	return pos, nil
}

func (a *Account) legFor(instrument model.Instrument, direction model.Direction) *model.Position {
	return a.legPositions[instrument][direction]
}

// realizedPnL computes signed P&L for closing closeQty of a position held
// in dir, entered at entry, exiting at exitPrice.
func realizedPnL(dir model.Direction, entry, exitPrice, closeQty decimal.Decimal) decimal.Decimal {
	delta := exitPrice.Sub(entry)
	if dir == model.Short {
		delta = delta.Neg()
	}
	return delta.Mul(closeQty)
}

func minDec(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
