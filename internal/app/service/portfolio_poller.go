package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// PortfolioPoller refreshes the portfolio of every configured wallet on an interval.
type PortfolioPoller struct {
	portfolios    port.PortfolioService
	assets        port.AssetProvider
	wallets       port.WalletProvider
	store         port.PortfolioStore
	mocks         entity.MockOverrides
	interval      time.Duration
	maxConcurrent int
	logger        port.Logger
	metrics       *metrics.Metrics
}

// NewPortfolioPoller creates a poller. maxConcurrent bounds the wallets refreshed at once.
func NewPortfolioPoller(
	portfolios port.PortfolioService,
	assets port.AssetProvider,
	wallets port.WalletProvider,
	store port.PortfolioStore,
	mocks entity.MockOverrides,
	interval time.Duration,
	maxConcurrent int,
	l port.Logger,
) *PortfolioPoller {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &PortfolioPoller{
		portfolios:    portfolios,
		assets:        assets,
		wallets:       wallets,
		store:         store,
		mocks:         mocks,
		interval:      interval,
		maxConcurrent: maxConcurrent,
		logger:        l,
	}
}

// WithMetrics publishes the total of every refreshed wallet. Only wallets the
// poller owns get a series.
func (p *PortfolioPoller) WithMetrics(m *metrics.Metrics) *PortfolioPoller {
	p.metrics = m
	return p
}

// Run refreshes immediately and then on every tick until ctx is done.
func (p *PortfolioPoller) Run(ctx context.Context) error {
	if p.interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", p.interval)
	}
	p.logger.Info("Portfolio poller started", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.RefreshAll(ctx); err != nil {
			p.logger.Warn("Portfolio refresh finished with errors", "error", err)
		}
		select {
		case <-ctx.Done():
			p.logger.Info("Portfolio poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RefreshAll runs one aggregation cycle per wallet, reusing each stored
// snapshot as the previous state.
func (p *PortfolioPoller) RefreshAll(ctx context.Context) error {
	wallets, err := p.wallets.GetWallets()
	if err != nil {
		return fmt.Errorf("failed to load wallets: %w", err)
	}
	if len(wallets) == 0 {
		p.logger.Debug("No wallets to refresh")
		return nil
	}

	assets, err := p.assets.GetAssets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for _, w := range wallets {
		g.Go(func() error {
			if err := p.refreshWallet(gctx, assets, w.Address); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (p *PortfolioPoller) refreshWallet(ctx context.Context, assets []entity.Asset, address string) error {
	previous, err := p.store.GetPortfolio(ctx, address)
	if err != nil {
		p.logger.Warn("Failed to read previous snapshot, starting fresh", "wallet", address, "error", err)
		previous = nil
	}
	snapshot, err := p.portfolios.AggregatePortfolio(ctx, assets, previous, address, p.mocks)
	if err != nil {
		return fmt.Errorf("wallet %s: %w", address, err)
	}
	p.metrics.SetPortfolioTotal(strings.ToLower(address), snapshot.Total.InexactFloat64())
	return nil
}
