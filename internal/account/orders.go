package account

import (
	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/book"
	"github.com/hourglass-exchange/hourglass/internal/metrics"
	"github.com/hourglass-exchange/hourglass/internal/model"
)

// OpenOrderRequest is the client-facing request to open a new order.
type OpenOrderRequest struct {
	Instrument    model.Instrument
	Side          model.Side
	Kind          model.OrderKind
	Price         decimal.Decimal // zero for Market
	Qty           decimal.Decimal
	ClientOrderId model.ClientOrderId

	// PositionSide selects which leg a LongShort-mode account's fill
	// applies to. Buy+Long or Sell+Short opens/increases that leg;
	// Sell+Long or Buy+Short closes/reduces it. Ignored in Net mode.
	PositionSide model.Direction
}

// OpenOrder validates, locks collateral for, and attempts immediate
// matching of a new order. It returns the accepted order (terminal or
// resting) together with every AccountEvent the request produced.
func (a *Account) OpenOrder(req OpenOrderRequest) (*model.Order, []model.AccountEvent, *model.ExchangeError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()

	if req.Qty.LessThanOrEqual(decimal.Zero) {
		return nil, nil, model.NewError(model.ErrNegativeOrZeroQty, "qty must be positive, got %s", req.Qty)
	}
	if req.Instrument.Kind != model.Perpetual {
		return nil, nil, model.NewError(model.ErrUnknownInstrument, "%s is not a matched instrument", req.Instrument)
	}
	if req.ClientOrderId != "" {
		if _, taken := a.usedClientOrderIds[req.ClientOrderId]; taken {
			return nil, nil, model.NewError(model.ErrDuplicateClientOrderId, "client_order_id %q already used", req.ClientOrderId)
		}
	}

	level, haveLevel := a.topOfBook.Get(req.Instrument)

	hasLimitPrice := req.Kind != model.Market
	if hasLimitPrice {
		ref := level.Last
		if ref.IsZero() {
			ref = level.Mid()
		}
		if err := checkPriceDeviation(req.Price, ref, a.config.MaxPriceDeviation); err != nil {
			return nil, nil, err
		}
	}

	estimatePrice := req.Price
	if req.Kind == model.Market {
		if !haveLevel {
			return nil, nil, model.NewError(model.ErrUnknownInstrument, "no market data for %s", req.Instrument)
		}
		if req.Side == model.Buy {
			estimatePrice = level.Ask
		} else {
			estimatePrice = level.Bid
		}
		if estimatePrice.IsZero() {
			return nil, nil, model.NewError(model.ErrUnknownInstrument, "no top of book on %s side for %s", req.Side, req.Instrument)
		}
	}

	if a.config.PositionDirectionMode == model.ModeLongShort {
		closing := isClosingLeg(req.Side, req.PositionSide)
		if closing {
			leg := a.legFor(req.Instrument, req.PositionSide)
			if leg == nil || req.Qty.GreaterThan(leg.Qty) {
				return nil, nil, model.NewError(model.ErrInsufficientMargin, "cannot close more than the open %s leg", req.PositionSide)
			}
		}
	}

	leverage := a.config.Leverage
	if leverage.LessThanOrEqual(decimal.Zero) {
		leverage = decimal.NewFromInt(1)
	}
	notionalEstimate := estimatePrice.Mul(req.Qty)
	marginEstimate := notionalEstimate.Div(leverage)
	feeEstimate := notionalEstimate.Mul(a.config.FeesBook.Rate(a.config.CommissionLevel, model.Taker))
	requiredLock := marginEstimate.Add(feeEstimate)

	quote := req.Instrument.Quote
	if err := a.lock(quote, requiredLock); err != nil {
		return nil, nil, err
	}

	order := &model.Order{
		Id:            a.book.NextOrderId(),
		ClientOrderId: req.ClientOrderId,
		Instrument:    req.Instrument,
		Side:          req.Side,
		Kind:          req.Kind,
		Price:         req.Price,
		Qty:           req.Qty,
		Status:        model.Pending,
		CreatedTs:     now,
		LockedAsset:   quote,
		LockedAmount:  requiredLock,
		PositionSide:  req.PositionSide,
	}
	if req.ClientOrderId != "" {
		a.usedClientOrderIds[req.ClientOrderId] = struct{}{}
	}

	fills, rest, rejErr := book.MatchOrderEntry(order, level, a.config.MaxFillQtyPerTick)
	if rejErr != nil {
		a.release(quote, requiredLock)
		order.Status = model.Rejected
		metrics.OrderRejectionsTotal.WithLabelValues(string(rejErr.Kind)).Inc()
		return order, []model.AccountEvent{{
			Kind: model.EventOrderRejected, Timestamp: now, Order: order, Reason: rejErr.Error(),
		}}, rejErr
	}

	var events []model.AccountEvent
	for _, f := range fills {
		events = append(events, a.applyFill(order, f.Price, f.Qty, f.Liquidity, now)...)
	}
	metrics.OpenPositions.Set(float64(len(a.allPositions())))

	restingKind := order.Kind == model.Limit || order.Kind == model.PostOnly
	switch {
	case rest.IsZero():
		order.Status = model.Filled
		a.release(quote, order.LockedAmount)
		order.LockedAmount = decimal.Zero
	case restingKind:
		if order.FilledQty.IsZero() {
			order.Status = model.Open
		} else {
			order.Status = model.PartiallyFilled
		}
		a.book.Insert(order)
	default:
		// Market/IOC/FoK: unfillable remainder is voided, never rested.
		order.Status = model.Cancelled
		a.release(quote, order.LockedAmount)
		order.LockedAmount = decimal.Zero
	}

	if order.Status == model.Open || order.Status == model.PartiallyFilled {
		events = append(events, model.AccountEvent{Kind: model.EventOrderOpened, Timestamp: now, Order: order})
	}

	return order, events, nil
}

// CancelOrder removes a resting order and releases its locked collateral.
func (a *Account) CancelOrder(id model.OrderId) (*model.Order, []model.AccountEvent, *model.ExchangeError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	order, ok := a.book.Remove(id)
	if !ok {
		return nil, nil, model.NewError(model.ErrUnknownOrder, "order %s not resting", id)
	}
	if order.Status.IsTerminal() {
		return nil, nil, model.NewError(model.ErrAlreadyTerminal, "order %s already %s", id, order.Status)
	}

	order.Status = model.Cancelled
	a.release(order.LockedAsset, order.LockedAmount)
	order.LockedAmount = decimal.Zero

	now := a.clock.Now()
	return order, []model.AccountEvent{{Kind: model.EventOrderCancelled, Timestamp: now, Order: order}}, nil
}

// CancelAll cancels every resting order, optionally filtered by instrument
// (zero-value Instrument means "all instruments").
func (a *Account) CancelAll(instrument model.Instrument) ([]*model.Order, []model.AccountEvent, *model.ExchangeError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	var cancelled []*model.Order
	var events []model.AccountEvent
	for _, o := range a.book.AllOpen() {
		if instrument != (model.Instrument{}) && o.Instrument != instrument {
			continue
		}
		a.book.Remove(o.Id)
		o.Status = model.Cancelled
		a.release(o.LockedAsset, o.LockedAmount)
		o.LockedAmount = decimal.Zero
		cancelled = append(cancelled, o)
		events = append(events, model.AccountEvent{Kind: model.EventOrderCancelled, Timestamp: now, Order: o})
	}
	return cancelled, events, nil
}

// FetchOrders returns a snapshot of every currently resting order.
func (a *Account) FetchOrders() []*model.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.book.AllOpen()
}

func isClosingLeg(side model.Side, positionSide model.Direction) bool {
	if positionSide == model.Short {
		return side == model.Buy
	}
	return side == model.Sell
}
