package market

import (
	"context"
	"log"
	"time"

	"retirement_planner/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Fetcher builds market snapshots from a MarketDataProvider.
type Fetcher struct {
	provider MarketDataProvider
	symbols  []Symbol
	now      func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithSymbols overrides the tracked symbols.
func WithSymbols(symbols []Symbol) Option {
	return func(f *Fetcher) {
		f.symbols = symbols
	}
}

// WithClock overrides the clock used to compute the window.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		f.now = now
	}
}

// NewFetcher returns a Fetcher over DefaultSymbols using the process clock.
func NewFetcher(provider MarketDataProvider, opts ...Option) *Fetcher {
	f := &Fetcher{
		provider: provider,
		symbols:  DefaultSymbols,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot fetches every symbol once, sequentially. A failure is recorded on
// that symbol's entry and never stops the remaining fetches.
func (f *Fetcher) Snapshot(ctx context.Context) models.MarketSnapshot {
	end := f.now()
	start := end.Add(-SnapshotWindow)

	snap := models.MarketSnapshot{Entries: make([]models.SymbolSnapshot, 0, len(f.symbols))}
	for _, s := range f.symbols {
		snap.Entries = append(snap.Entries, f.fetchOne(ctx, s, start, end))
	}
	return snap
}

func (f *Fetcher) fetchOne(ctx context.Context, s Symbol, start, end time.Time) models.SymbolSnapshot {
	entry := models.SymbolSnapshot{Symbol: s.Ticker, Label: s.Label}

	bars, err := f.provider.DailyCloses(ctx, s.Ticker, start, end)
	if err != nil {
		log.Printf("WARN: market data for %s failed: %v", s.Ticker, err)
		entry.Err = err.Error()
		return entry
	}
	if len(bars) == 0 {
		entry.Err = NoDataMessage
		return entry
	}

	first, last := bars[0], bars[len(bars)-1]
	if first.Close.IsZero() {
		entry.Err = "First close in the period is zero."
		return entry
	}

	entry.StartDate = first.Time.Format(DateLayout)
	entry.EndDate = last.Time.Format(DateLayout)
	entry.StartPrice = first.Close
	entry.EndPrice = last.Close
	entry.PctChange = last.Close.Sub(first.Close).Div(first.Close).Mul(hundred)
	return entry
}
