package book

import (
	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

// MatchOrderEntry computes the fills a just-accepted order (not yet
// resting in the book) earns immediately against the current
// top-of-book, honoring order-kind semantics:
//
//   - Market: crosses the opposite top immediately, capped by
//     maxFillQtyPerTick (top qty is otherwise assumed unbounded for a
//     single-level book).
//   - Limit: crosses only while its price passes the opposite top,
//     filling at the better (opposite top) price — price improvement —
//     never at the order's own limit price.
//   - PostOnly: rejected with ErrPostOnlyCross if it would cross at all.
//   - ImmediateOrCancel: fills what it can like a Limit order; any
//     remainder is reported via restQty but the caller must cancel it,
//     never rest it.
//   - FillOrKill: rejected with ErrFoKUnfillable unless the entire Qty
//     can fill immediately.
//
// order.FilledQty is read but never mutated here — internal/account
// commits each FillInstruction and updates the order afterward.
func MatchOrderEntry(order *model.Order, level model.BookLevel, maxFillQtyPerTick decimal.Decimal) (fills []FillInstruction, restQty decimal.Decimal, rejErr *model.ExchangeError) {
	opposite := order.Side.Opposite()
	topPrice, haveTop := topOfBookPrice(level, opposite)
	remaining := order.RemainingQty()

	crosses := func() bool {
		if !haveTop {
			return false
		}
		switch order.Side {
		case model.Buy:
			return order.Kind == model.Market || order.Price.GreaterThanOrEqual(topPrice)
		default:
			return order.Kind == model.Market || order.Price.LessThanOrEqual(topPrice)
		}
	}

	switch order.Kind {
	case model.PostOnly:
		if crosses() {
			return nil, remaining, model.NewError(model.ErrPostOnlyCross, "order would cross the book at %s", topPrice)
		}
		return nil, remaining, nil

	case model.FillOrKill:
		if !crosses() {
			return nil, remaining, model.NewError(model.ErrFoKUnfillable, "no liquidity at or better than %s", order.Price)
		}
		fillQty := minDecimal(remaining, maxFillQtyPerTick)
		if fillQty.LessThan(remaining) {
			return nil, remaining, model.NewError(model.ErrFoKUnfillable, "insufficient top-of-book liquidity for full fill")
		}
		return []FillInstruction{{Order: order, Price: topPrice, Qty: fillQty, Liquidity: model.Taker}}, decimal.Zero, nil

	case model.Market, model.Limit, model.ImmediateOrCancel:
		if !crosses() {
			if order.Kind == model.ImmediateOrCancel || order.Kind == model.Market {
				// Nothing to fill against; IoC/Market never rest.
				return nil, remaining, nil
			}
			return nil, remaining, nil // Limit rests unfilled.
		}
		fillQty := minDecimal(remaining, maxFillQtyPerTick)
		fills = []FillInstruction{{Order: order, Price: topPrice, Qty: fillQty, Liquidity: model.Taker}}
		restQty = remaining.Sub(fillQty)
		return fills, restQty, nil

	default:
		return nil, remaining, nil
	}
}

// MatchRestingOrders walks an instrument's resting orders in price-time
// priority against a fresh top-of-book snapshot and returns the fills
// they earn, up to a cumulative maxFillQtyPerTick across both sides.
// It does not mutate the book or any order — internal/account commits
// each fill and removes orders that become terminal.
func (b *Book) MatchRestingOrders(instrument model.Instrument, level model.BookLevel, maxFillQtyPerTick decimal.Decimal) []FillInstruction {
	var fills []FillInstruction
	budget := maxFillQtyPerTick

	fillSide := func(side model.Side) {
		if budget.LessThanOrEqual(decimal.Zero) {
			return
		}
		opposite := side.Opposite()
		topPrice, haveTop := topOfBookPrice(level, opposite)
		if !haveTop {
			return
		}
		for _, o := range b.sideMap(side)[instrument] {
			if budget.LessThanOrEqual(decimal.Zero) {
				return
			}
			if o.Status.IsTerminal() {
				continue
			}
			crosses := false
			if side == model.Buy {
				crosses = o.Price.GreaterThanOrEqual(topPrice)
			} else {
				crosses = o.Price.LessThanOrEqual(topPrice)
			}
			if !crosses {
				// Price-priority ordering means no later order in this
				// queue can cross either, once the best one fails to.
				return
			}
			remaining := o.RemainingQty()
			fillQty := minDecimal(remaining, budget)
			if fillQty.LessThanOrEqual(decimal.Zero) {
				continue
			}
			fills = append(fills, FillInstruction{Order: o, Price: topPrice, Qty: fillQty, Liquidity: model.Maker})
			budget = budget.Sub(fillQty)
		}
	}

	fillSide(model.Buy)
	fillSide(model.Sell)
	return fills
}

func topOfBookPrice(level model.BookLevel, side model.Side) (decimal.Decimal, bool) {
	if side == model.Buy {
		if level.Bid.IsZero() {
			return decimal.Zero, false
		}
		return level.Bid, true
	}
	if level.Ask.IsZero() {
		return decimal.Zero, false
	}
	return level.Ask, true
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
