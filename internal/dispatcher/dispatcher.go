// Package dispatcher is the exchange's single request-processing loop:
// every client request (OpenOrder, CancelOrder, FetchBalances, LetItRoll,
// ...) and every tick loop step run serialized on one goroutine, reached
// only through channels — no caller ever touches Account or Engine
// directly. This is the Go counterpart of the original local-mode
// client's per-request-type channel-and-oneshot-response pattern.
package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/account"
	"github.com/hourglass-exchange/hourglass/internal/engine"
	"github.com/hourglass-exchange/hourglass/internal/metrics"
	"github.com/hourglass-exchange/hourglass/internal/model"
)

// RequestKind names the operation a Request carries.
type RequestKind string

const (
	ReqOpenOrder      RequestKind = "OPEN_ORDER"
	ReqCancelOrder    RequestKind = "CANCEL_ORDER"
	ReqCancelAll      RequestKind = "CANCEL_ALL"
	ReqFetchBalances  RequestKind = "FETCH_BALANCES"
	ReqFetchPositions RequestKind = "FETCH_POSITIONS"
	ReqFetchOrders    RequestKind = "FETCH_ORDERS"
	ReqDeposit        RequestKind = "DEPOSIT"
	ReqWithdraw       RequestKind = "WITHDRAW"
	ReqLetItRoll      RequestKind = "LET_IT_ROLL"
)

// Request is a tagged union of every operation the dispatcher accepts.
// Only the fields relevant to Kind are populated. Response is the
// one-shot reply channel for this single request, always buffered by 1
// so Run never blocks delivering it.
type Request struct {
	Kind RequestKind

	OpenOrder       account.OpenOrderRequest
	CancelOrderId   model.OrderId
	CancelAllSymbol model.Instrument
	Asset           model.Token
	Qty             decimal.Decimal

	Response chan Response
}

// Response carries the result of one Request. Only the fields relevant
// to the originating Kind are populated.
type Response struct {
	Order     *model.Order
	Orders    []*model.Order
	Balances  []model.Balance
	Positions []model.Position
	Balance   model.Balance

	AccountEvents []model.AccountEvent
	MarketEvents  []model.MarketEvent

	Err *model.ExchangeError
}

// NewRequest allocates a Request with its response channel pre-built.
func NewRequest(kind RequestKind) Request {
	return Request{Kind: kind, Response: make(chan Response, 1)}
}

// Dispatcher owns the account and tick-loop engine for one session and
// serializes every access to them through a single request channel.
type Dispatcher struct {
	acc *account.Account
	eng *engine.Engine

	requests chan Request

	accountEvents chan model.AccountEvent
	marketEvents  chan model.MarketEvent
}

// New builds a Dispatcher. bufSize sizes the request queue and the
// fan-out event channels; callers drain AccountEvents()/MarketEvents()
// from a separate goroutine (e.g. internal/events.Hub) or risk the
// non-blocking publishers below dropping events under sustained load.
func New(acc *account.Account, eng *engine.Engine, bufSize int) *Dispatcher {
	return &Dispatcher{
		acc:           acc,
		eng:           eng,
		requests:      make(chan Request, bufSize),
		accountEvents: make(chan model.AccountEvent, bufSize),
		marketEvents:  make(chan model.MarketEvent, bufSize),
	}
}

// Requests returns the send-only channel clients submit Requests on.
func (d *Dispatcher) Requests() chan<- Request { return d.requests }

// AccountEvents returns the receive-only channel of published account events.
func (d *Dispatcher) AccountEvents() <-chan model.AccountEvent { return d.accountEvents }

// MarketEvents returns the receive-only channel of published market events.
func (d *Dispatcher) MarketEvents() <-chan model.MarketEvent { return d.marketEvents }

// Run drains the request channel until ctx is cancelled. It must run on
// exactly one goroutine — this is the exchange's single cooperative task
// loop; Account's internal mutex exists only to protect the read-only
// Fetch* calls made from outside this loop, never the write path.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.requests:
			start := time.Now()
			resp := d.handle(req)
			metrics.ObserveRequest(string(req.Kind), time.Since(start))
			d.publish(resp.AccountEvents, resp.MarketEvents)
			req.Response <- resp
		}
	}
}

func (d *Dispatcher) publish(accountEvents []model.AccountEvent, marketEvents []model.MarketEvent) {
	for _, e := range accountEvents {
		select {
		case d.accountEvents <- e:
		default:
			slog.Warn("dropping account event, subscriber too slow", "kind", e.Kind)
		}
	}
	for _, e := range marketEvents {
		select {
		case d.marketEvents <- e:
		default:
			slog.Warn("dropping market event, subscriber too slow", "instrument", e.Instrument.Symbol())
		}
	}
}

func (d *Dispatcher) handle(req Request) Response {
	switch req.Kind {
	case ReqOpenOrder:
		order, events, err := d.acc.OpenOrder(req.OpenOrder)
		return Response{Order: order, AccountEvents: events, Err: err}

	case ReqCancelOrder:
		order, events, err := d.acc.CancelOrder(req.CancelOrderId)
		return Response{Order: order, AccountEvents: events, Err: err}

	case ReqCancelAll:
		orders, events, err := d.acc.CancelAll(req.CancelAllSymbol)
		return Response{Orders: orders, AccountEvents: events, Err: err}

	case ReqFetchBalances:
		return Response{Balances: d.acc.FetchBalances()}

	case ReqFetchPositions:
		positions := d.acc.FetchPositions()
		return Response{Positions: positions}

	case ReqFetchOrders:
		return Response{Orders: d.acc.FetchOrders()}

	case ReqDeposit:
		balance, err := d.acc.Deposit(req.Asset, req.Qty)
		return Response{Balance: balance, Err: err}

	case ReqWithdraw:
		balance, err := d.acc.Withdraw(req.Asset, req.Qty)
		return Response{Balance: balance, Err: err}

	case ReqLetItRoll:
		marketEvents, accountEvents, err := d.eng.Tick(context.Background())
		return Response{MarketEvents: marketEvents, AccountEvents: accountEvents, Err: err}

	default:
		return Response{Err: model.NewError(model.ErrUnknownOrder, "unknown request kind %q", req.Kind)}
	}
}
