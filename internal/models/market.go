package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one daily candle returned by a market data provider.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// SymbolSnapshot is the outcome of fetching one symbol.
// Exactly one branch is meaningful: Err != "" marks a failure record,
// otherwise the price fields are populated.
type SymbolSnapshot struct {
	Symbol     string          `json:"symbol"`
	Label      string          `json:"label"`
	StartDate  string          `json:"start_date,omitempty"`
	EndDate    string          `json:"end_date,omitempty"`
	StartPrice decimal.Decimal `json:"start_price"`
	EndPrice   decimal.Decimal `json:"end_price"`
	PctChange  decimal.Decimal `json:"pct_change_90d"`
	Err        string          `json:"error,omitempty"`
}

// Failed reports whether the fetch for this symbol failed.
func (s SymbolSnapshot) Failed() bool {
	return s.Err != ""
}

// MarketSnapshot keeps per-symbol results in the fixed symbol order.
type MarketSnapshot struct {
	Entries []SymbolSnapshot `json:"entries"`
}

// Get returns the entry for symbol, if present.
func (m MarketSnapshot) Get(symbol string) (SymbolSnapshot, bool) {
	for _, e := range m.Entries {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return SymbolSnapshot{}, false
}
