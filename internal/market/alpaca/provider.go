package alpaca

import (
	"context"
	"fmt"
	"time"

	"retirement_planner/internal/config"
	"retirement_planner/internal/market"
	"retirement_planner/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// Provider implements market.MarketDataProvider on top of Alpaca's
// historical bars endpoint.
type Provider struct {
	mdClient *marketdata.Client
	feed     marketdata.Feed
}

// Ensure Provider implements the interface
var _ market.MarketDataProvider = (*Provider)(nil)

// NewProvider builds a market data client from the configured credentials.
// Empty credentials are passed through; the SDK then falls back to the
// APCA_* environment variables and the request fails per symbol if none
// are set.
func NewProvider(cfg *config.Config) *Provider {
	return &Provider{
		mdClient: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    cfg.AlpacaKeyID,
			APISecret: cfg.AlpacaSecretKey,
			BaseURL:   cfg.AlpacaDataURL,
		}),
		feed: marketdata.Feed(cfg.AlpacaDataFeed),
	}
}

// DailyCloses returns one bar per trading day in [start, end], oldest first.
func (p *Provider) DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars, err := p.mdClient.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Start:      start,
		End:        end,
		Feed:       p.feed,
		Adjustment: marketdata.Split,
	})
	if err != nil {
		return nil, fmt.Errorf("get bars for %s: %w", symbol, err)
	}

	result := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		result = append(result, models.Bar{
			Time:   b.Timestamp,
			Open:   decimal.NewFromFloat(b.Open),
			High:   decimal.NewFromFloat(b.High),
			Low:    decimal.NewFromFloat(b.Low),
			Close:  decimal.NewFromFloat(b.Close),
			Volume: int64(b.Volume),
		})
	}
	return result, nil
}
