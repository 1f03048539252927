// Package model defines the core domain types shared by the account,
// order book, matching engine and dispatcher.
//
// All monetary and quantity values use shopspring/decimal — never
// float64 for money.
package model

import (
	"strings"
	"sync"
)

// Token is an interned, uppercase asset symbol (e.g. "USDT", "ETH").
type Token string

var (
	tokenMu       sync.Mutex
	tokenRegistry = make(map[string]Token)
)

// NewToken interns a symbol on first use and returns the canonical Token.
// Symbols are case-normalized to uppercase.
func NewToken(symbol string) Token {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	tokenMu.Lock()
	defer tokenMu.Unlock()

	if t, ok := tokenRegistry[symbol]; ok {
		return t
	}
	t := Token(symbol)
	tokenRegistry[symbol] = t
	return t
}

func (t Token) String() string { return string(t) }
