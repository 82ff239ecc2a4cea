package market

import (
	"context"
	"time"

	"retirement_planner/internal/models"
)

// MarketDataProvider is the capability the snapshot needs from a data
// vendor. The Alpaca implementation lives in internal/market/alpaca; tests
// use hand-written fakes.
type MarketDataProvider interface {
	DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error)
}

// Symbol is one tracked market proxy.
type Symbol struct {
	Ticker string
	Label  string
}

// DefaultSymbols are fetched in this order for every snapshot.
// SPY stands in for the S&P 500 index, which the data feed does not carry.
var DefaultSymbols = []Symbol{
	{Ticker: "SPY", Label: "S&P 500"},
	{Ticker: "VTI", Label: "Total US Stock Market"},
	{Ticker: "BND", Label: "Total US Bond Market"},
}

// SnapshotWindow is the trailing window covered by a snapshot.
const SnapshotWindow = 90 * 24 * time.Hour

// DateLayout formats snapshot dates.
const DateLayout = "2006-01-02"

// NoDataMessage is recorded when the provider returns an empty series.
const NoDataMessage = "No data returned for this period."
