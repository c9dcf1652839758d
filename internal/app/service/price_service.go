package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	apitypes "portfolio_tracker/internal/entity"
	"portfolio_tracker/internal/infrastructure/configloader"
	"portfolio_tracker/internal/pkg/metrics"
	"portfolio_tracker/internal/pkg/utils"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

const defaultChartCacheTTL = 5 * time.Minute

// priceServiceImpl implements port.PriceService
type priceServiceImpl struct {
	site       port.SiteAPIClient
	logger     port.Logger
	metrics    *metrics.Metrics
	chartCache *cache.Cache
}

// NewPriceService creates a new instance of priceServiceImpl.
func NewPriceService(
	site port.SiteAPIClient,
	l port.Logger,
	config *configloader.Config,
	m *metrics.Metrics,
) port.PriceService {
	ttl := defaultChartCacheTTL
	if config != nil && config.Prices.ChartCacheTTLMinutes > 0 {
		ttl = time.Duration(config.Prices.ChartCacheTTLMinutes) * time.Minute
	}
	s := &priceServiceImpl{
		site:       site,
		logger:     l,
		metrics:    m,
		chartCache: cache.New(ttl, 2*ttl),
	}
	l.Info("PriceService успешно инициализирован.", "chart_cache_ttl", ttl.String())
	return s
}

// FetchFiatPrices implements port.PriceService.
func (s *priceServiceImpl) FetchFiatPrices(ctx context.Context, list []entity.PortfolioEntry, mocks entity.MockOverrides) []entity.PortfolioEntry {
	prices, err := s.site.GetPortfolioPrices(ctx)
	if err != nil {
		s.metrics.IncPriceFailure()
		s.logger.Error("Failed to fetch fiat prices, keeping previous values", "error", err)
		return list
	}

	bySymbol := make(map[string]apitypes.PriceData, len(prices))
	for _, p := range prices {
		if _, dup := bySymbol[p.Symbol]; !dup {
			bySymbol[p.Symbol] = p
		}
	}

	out := make([]entity.PortfolioEntry, len(list))
	for i, e := range list {
		if mockPrice, ok := mocks.Price(e.Symbol); ok {
			p := mockPrice
			e.Price = &p
			e.Change24 = decimal.Zero
			out[i] = e
			continue
		}

		data, ok := bySymbol[e.Symbol]
		if !ok {
			out[i] = e
			continue
		}
		out[i] = e.WithQuote(quoteFromPriceData(data))
	}
	return out
}

// FetchSinglePrice implements port.PriceService.
func (s *priceServiceImpl) FetchSinglePrice(ctx context.Context, symbol string, mocks entity.MockOverrides) (entity.PriceQuote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return entity.PriceQuote{}, entity.NewValidationError("symbol is required")
	}
	if mockPrice, ok := mocks.Price(symbol); ok {
		return entity.PriceQuote{Symbol: symbol, Price: mockPrice}, nil
	}

	data, err := s.site.GetPortfolioPrice(ctx, symbol)
	if err != nil {
		s.logger.Error("Failed to fetch price", "symbol", symbol, "error", err)
		return entity.PriceQuote{}, fmt.Errorf("failed to fetch price for %s: %w", symbol, err)
	}
	quote := quoteFromPriceData(data)
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}
	return quote, nil
}

// FetchPriceHistory implements port.PriceService.
func (s *priceServiceImpl) FetchPriceHistory(ctx context.Context, symbol string) (entity.ChartData, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return entity.ChartData{}, entity.NewValidationError("symbol is required")
	}
	if cached, ok := s.chartCache.Get(symbol); ok {
		if chart, ok := cached.(entity.ChartData); ok {
			s.logger.Debug("Chart served from cache", "symbol", symbol)
			return chart, nil
		}
	}

	resp, err := s.site.GetPortfolioChart(ctx, symbol)
	if err != nil {
		s.logger.Error("Failed to fetch price chart", "symbol", symbol, "error", err)
		return entity.ChartData{}, fmt.Errorf("failed to fetch price chart for %s: %w", symbol, err)
	}

	chart := entity.ChartData{Symbol: symbol, Points: make([]entity.ChartPoint, 0, len(resp.PriceUSD))}
	for _, pair := range resp.PriceUSD {
		if len(pair) < 2 {
			continue
		}
		chart.Points = append(chart.Points, entity.ChartPoint{
			Timestamp: utils.ToDecimal(pair[0]).IntPart(),
			Price:     utils.ToDecimal(pair[1]),
		})
	}

	s.chartCache.SetDefault(symbol, chart)
	return chart, nil
}

func quoteFromPriceData(data apitypes.PriceData) entity.PriceQuote {
	return entity.PriceQuote{
		Symbol:    data.Symbol,
		Price:     utils.ToDecimal(data.PriceUSD),
		Change24:  utils.ToDecimal(data.PercentChange24h),
		Volume24:  utils.ToDecimal(data.Volume24hUSD),
		MarketCap: utils.ToDecimal(data.MarketCapUSD),
	}
}
