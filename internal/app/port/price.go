package port

import (
	"context"

	"portfolio_tracker/internal/domain/entity"
	apitypes "portfolio_tracker/internal/entity"
)

// SiteAPIClient talks to the site API serving the asset registry and prices.
type SiteAPIClient interface {
	GetAssets(ctx context.Context) ([]entity.Asset, error)
	GetPortfolioPrices(ctx context.Context) ([]apitypes.PriceData, error)
	GetPortfolioPrice(ctx context.Context, symbol string) (apitypes.PriceData, error)
	GetPortfolioChart(ctx context.Context, symbol string) (apitypes.ChartResponse, error)
}

// PriceService определяет интерфейс для службы получения цен.
type PriceService interface {
	// FetchFiatPrices attaches quotes to the entries. It never fails: on any
	// upstream problem the input is returned unchanged.
	FetchFiatPrices(ctx context.Context, list []entity.PortfolioEntry, mocks entity.MockOverrides) []entity.PortfolioEntry
	FetchSinglePrice(ctx context.Context, symbol string, mocks entity.MockOverrides) (entity.PriceQuote, error)
	FetchPriceHistory(ctx context.Context, symbol string) (entity.ChartData, error)
}
