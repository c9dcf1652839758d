package client

import (
	"context"
	"net/url"
	"strings"

	"portfolio_tracker/internal/domain/entity"
	apitypes "portfolio_tracker/internal/entity"

	"go.uber.org/zap"
)

// SiteClient реализует port.SiteAPIClient поверх HTTP API сайта.
type SiteClient struct {
	api *apiClient
}

// NewSiteClient creates a client for the site API.
func NewSiteClient(opts Options, logger *zap.Logger) *SiteClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SiteClient{api: newAPIClient(opts, logger.Named("site_client"))}
}

// GetAssets fetches the asset registry.
func (c *SiteClient) GetAssets(ctx context.Context) ([]entity.Asset, error) {
	var assets []entity.Asset
	if err := c.api.get(ctx, "/app/assets", &assets, true); err != nil {
		return nil, err
	}
	return assets, nil
}

// GetPortfolioPrices fetches quotes for every supported asset.
func (c *SiteClient) GetPortfolioPrices(ctx context.Context) ([]apitypes.PriceData, error) {
	var prices []apitypes.PriceData
	if err := c.api.get(ctx, "/app/portfolio-price", &prices, true); err != nil {
		return nil, err
	}
	return prices, nil
}

// GetPortfolioPrice fetches the quote for one symbol.
func (c *SiteClient) GetPortfolioPrice(ctx context.Context, symbol string) (apitypes.PriceData, error) {
	var price apitypes.PriceData
	if err := c.api.get(ctx, "/app/portfolio-price/"+escapeSegment(symbol), &price, true); err != nil {
		return apitypes.PriceData{}, err
	}
	return price, nil
}

// GetPortfolioChart fetches the price history for one symbol.
func (c *SiteClient) GetPortfolioChart(ctx context.Context, symbol string) (apitypes.ChartResponse, error) {
	var chart apitypes.ChartResponse
	if err := c.api.get(ctx, "/app/portfolio-chart/"+escapeSegment(symbol), &chart, true); err != nil {
		return apitypes.ChartResponse{}, err
	}
	return chart, nil
}

func escapeSegment(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}
