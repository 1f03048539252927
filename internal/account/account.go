// Package account implements Account State: balances, positions, the
// exited-position archive, fee schedule and margin accounting. All
// operations are serialized by a single mutex, mirroring the exchange's
// single-threaded cooperative scheduling model — callers never need a
// second lock around an Account.
package account

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/book"
	"github.com/hourglass-exchange/hourglass/internal/clock"
	"github.com/hourglass-exchange/hourglass/internal/model"
)

// Account owns every piece of mutable exchange state for one session:
// balances, positions, the exited-position archive, the open-order book
// and the single-level top-of-book snapshot.
type Account struct {
	mu sync.Mutex

	config model.AccountConfig
	clock  *clock.Clock
	book   *book.Book

	balances map[model.Token]*model.Balance

	// Net mode: at most one position per instrument.
	netPositions map[model.Instrument]*model.Position
	// LongShort mode: independent Long/Short legs per instrument.
	legPositions map[model.Instrument]map[model.Direction]*model.Position

	exited []model.ExitedPosition

	topOfBook *model.SingleLevelOrderBook

	usedClientOrderIds map[model.ClientOrderId]struct{}

	nextFundingTs int64
}

// New constructs an Account for a fresh session. machineId/session seed
// the order-id triple; config is the immutable snapshot taken at
// construction time.
func New(config model.AccountConfig, clk *clock.Clock, session uuid.UUID) *Account {
	if config.MaxFillQtyPerTick.IsZero() {
		config.MaxFillQtyPerTick = model.UnboundedFillQty
	}
	return &Account{
		config:             config,
		clock:              clk,
		book:               book.New(config.MachineId, session),
		balances:           make(map[model.Token]*model.Balance),
		netPositions:       make(map[model.Instrument]*model.Position),
		legPositions:       make(map[model.Instrument]map[model.Direction]*model.Position),
		topOfBook:          model.NewSingleLevelOrderBook(),
		usedClientOrderIds: make(map[model.ClientOrderId]struct{}),
	}
}

// Config returns the account's immutable configuration snapshot.
func (a *Account) Config() model.AccountConfig { return a.config }

// Book exposes the open-order book for the matching engine's tick loop.
// Callers must already hold no external lock — the engine calls this
// only from within a method that itself locked the account, or while the
// account is not concurrently accessed (single-threaded tick loop).
func (a *Account) Book() *book.Book { return a.book }

// TopOfBook exposes the single-level order book snapshot.
func (a *Account) TopOfBook() *model.SingleLevelOrderBook { return a.topOfBook }

func (a *Account) getOrCreateBalance(asset model.Token) *model.Balance {
	b, ok := a.balances[asset]
	if !ok {
		b = &model.Balance{Asset: asset, Total: decimal.Zero, Available: decimal.Zero, Locked: decimal.Zero}
		a.balances[asset] = b
	}
	return b
}

// Deposit credits qty of asset to Available/Total.
func (a *Account) Deposit(asset model.Token, qty decimal.Decimal) (model.Balance, *model.ExchangeError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if qty.LessThanOrEqual(decimal.Zero) {
		return model.Balance{}, model.NewError(model.ErrNegativeOrZeroQty, "deposit qty must be positive")
	}
	b := a.getOrCreateBalance(asset)
	b.Total = b.Total.Add(qty)
	b.Available = b.Available.Add(qty)
	return *b, nil
}

// Withdraw debits qty of asset from Available/Total. Fails
// InsufficientFunds if Available < qty.
func (a *Account) Withdraw(asset model.Token, qty decimal.Decimal) (model.Balance, *model.ExchangeError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if qty.LessThanOrEqual(decimal.Zero) {
		return model.Balance{}, model.NewError(model.ErrNegativeOrZeroQty, "withdraw qty must be positive")
	}
	b := a.getOrCreateBalance(asset)
	if b.Available.LessThan(qty) {
		return model.Balance{}, model.NewError(model.ErrInsufficientFunds, "available %s < requested %s", b.Available, qty)
	}
	b.Available = b.Available.Sub(qty)
	b.Total = b.Total.Sub(qty)
	return *b, nil
}

// lock moves qty from Available to Locked. Caller must hold a.mu.
func (a *Account) lock(asset model.Token, qty decimal.Decimal) *model.ExchangeError {
	b := a.getOrCreateBalance(asset)
	if b.Available.LessThan(qty) {
		return model.NewError(model.ErrInsufficientFunds, "available %s < required %s for asset %s", b.Available, qty, asset)
	}
	b.Available = b.Available.Sub(qty)
	b.Locked = b.Locked.Add(qty)
	return nil
}

// release moves qty from Locked back to Available. Caller must hold a.mu.
func (a *Account) release(asset model.Token, qty decimal.Decimal) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return
	}
	b := a.getOrCreateBalance(asset)
	if qty.GreaterThan(b.Locked) {
		qty = b.Locked
	}
	b.Locked = b.Locked.Sub(qty)
	b.Available = b.Available.Add(qty)
}

// debitFee removes fee from both Locked and Total — fee leaves the
// account entirely, it is not released back to Available.
func (a *Account) debitFee(asset model.Token, fee decimal.Decimal) {
	if fee.LessThanOrEqual(decimal.Zero) {
		return
	}
	b := a.getOrCreateBalance(asset)
	if fee.GreaterThan(b.Locked) {
		fee = b.Locked
	}
	b.Locked = b.Locked.Sub(fee)
	b.Total = b.Total.Sub(fee)
}

// creditRealizedPnL applies a signed realized P&L to an asset's
// Total/Available (free capital — never Locked).
func (a *Account) creditRealizedPnL(asset model.Token, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	b := a.getOrCreateBalance(asset)
	b.Total = b.Total.Add(amount)
	b.Available = b.Available.Add(amount)
}

// FetchBalances returns a value-copy snapshot of every tracked balance.
func (a *Account) FetchBalances() []model.Balance {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.Balance, 0, len(a.balances))
	for _, b := range a.balances {
		out = append(out, *b)
	}
	return out
}

// FetchBalance returns the balance for one asset.
func (a *Account) FetchBalance(asset model.Token) model.Balance {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.getOrCreateBalance(asset)
}

// ExitedPositions returns a value-copy snapshot of the exit archive.
func (a *Account) ExitedPositions() []model.ExitedPosition {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.ExitedPosition, len(a.exited))
	copy(out, a.exited)
	return out
}

// Lock and Unlock expose the account mutex to callers outside the
// dispatcher's single request loop — e.g. an HTTP status endpoint reading
// FetchBalances concurrently with the loop. Code running inside the loop
// never needs these; every exported method already locks itself.
func (a *Account) Lock()   { a.mu.Lock() }
func (a *Account) Unlock() { a.mu.Unlock() }

// ClockNow, ClockTick and ClockAdvanceTo expose the account's virtual
// clock to the tick loop. Each locks independently — the engine's tick
// loop and the dispatcher's request handlers are expected to run on the
// same single cooperative task loop (spec: one goroutine drains both the
// trade feed and the client-request channel), so this mutex exists
// mainly to protect read-only Fetch* calls made from a separate query
// path, not to serialize the tick's own sub-steps against each other.
func (a *Account) ClockNow() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clock.Now()
}
func (a *Account) ClockTick() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clock.Tick()
}
func (a *Account) ClockAdvanceTo(ts int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clock.AdvanceTo(ts)
}
