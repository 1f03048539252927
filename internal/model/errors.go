package model

import "fmt"

// ErrorKind is the error taxonomy named in the exchange's error handling
// design: validation and funds/state errors are surfaced to the caller as
// the response to the offending request; stream errors pause the engine;
// internal errors are fatal and never reach this type (they panic).
type ErrorKind string

const (
	// Validation
	ErrUnknownInstrument      ErrorKind = "UNKNOWN_INSTRUMENT"
	ErrPriceDeviationExceeded ErrorKind = "PRICE_DEVIATION_EXCEEDED"
	ErrNegativeOrZeroQty      ErrorKind = "NEGATIVE_OR_ZERO_QTY"
	ErrPostOnlyCross          ErrorKind = "POST_ONLY_CROSS"
	ErrFoKUnfillable          ErrorKind = "FOK_UNFILLABLE"

	// Funds
	ErrInsufficientFunds  ErrorKind = "INSUFFICIENT_FUNDS"
	ErrInsufficientMargin ErrorKind = "INSUFFICIENT_MARGIN"

	// State
	ErrUnknownOrder            ErrorKind = "UNKNOWN_ORDER"
	ErrAlreadyTerminal         ErrorKind = "ALREADY_TERMINAL"
	ErrDuplicateClientOrderId  ErrorKind = "DUPLICATE_CLIENT_ORDER_ID"

	// Stream
	ErrDataSourceExhausted ErrorKind = "DATA_SOURCE_EXHAUSTED"
	ErrDataSourceCorrupt   ErrorKind = "DATA_SOURCE_CORRUPT"
)

// ExchangeError is the concrete error type returned for every surfaced
// validation/funds/state/stream failure.
type ExchangeError struct {
	Kind    ErrorKind
	Message string
}

func (e *ExchangeError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is allows errors.Is(err, &ExchangeError{Kind: X}) style matching against
// the kind alone, ignoring Message.
func (e *ExchangeError) Is(target error) bool {
	t, ok := target.(*ExchangeError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError constructs an ExchangeError with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *ExchangeError {
	return &ExchangeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinel instances for errors.Is comparisons without allocating a kind-only value inline.
var (
	ErrUnknownInstrumentSentinel      = &ExchangeError{Kind: ErrUnknownInstrument}
	ErrPriceDeviationExceededSentinel = &ExchangeError{Kind: ErrPriceDeviationExceeded}
	ErrInsufficientFundsSentinel      = &ExchangeError{Kind: ErrInsufficientFunds}
	ErrInsufficientMarginSentinel     = &ExchangeError{Kind: ErrInsufficientMargin}
	ErrUnknownOrderSentinel           = &ExchangeError{Kind: ErrUnknownOrder}
	ErrAlreadyTerminalSentinel        = &ExchangeError{Kind: ErrAlreadyTerminal}
	ErrDuplicateClientOrderIdSentinel = &ExchangeError{Kind: ErrDuplicateClientOrderId}
	ErrDataSourceExhaustedSentinel    = &ExchangeError{Kind: ErrDataSourceExhausted}
	ErrDataSourceCorruptSentinel      = &ExchangeError{Kind: ErrDataSourceCorrupt}
	ErrPostOnlyCrossSentinel          = &ExchangeError{Kind: ErrPostOnlyCross}
	ErrFoKUnfillableSentinel          = &ExchangeError{Kind: ErrFoKUnfillable}
	ErrNegativeOrZeroQtySentinel      = &ExchangeError{Kind: ErrNegativeOrZeroQty}
)
