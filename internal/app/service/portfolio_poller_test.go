package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/infrastructure/store"
	"portfolio_tracker/internal/pkg/logger"
	"portfolio_tracker/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssets struct {
	assets []entity.Asset
	err    error
}

func (s stubAssets) GetAssets(context.Context) ([]entity.Asset, error) { return s.assets, s.err }

type stubWallets struct {
	wallets []entity.Wallet
	err     error
}

func (s stubWallets) GetWallets() ([]entity.Wallet, error) { return s.wallets, s.err }

type recordingAggregator struct {
	mu        sync.Mutex
	wallets   []string
	previous  map[string]*entity.PortfolioSnapshot
	failFor   string
	callCount int
	totals    map[string]decimal.Decimal
}

func (r *recordingAggregator) AggregatePortfolio(
	_ context.Context,
	_ []entity.Asset,
	previous *entity.PortfolioSnapshot,
	walletAddress string,
	_ entity.MockOverrides,
) (*entity.PortfolioSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callCount++
	r.wallets = append(r.wallets, walletAddress)
	if r.previous == nil {
		r.previous = map[string]*entity.PortfolioSnapshot{}
	}
	r.previous[walletAddress] = previous
	if walletAddress == r.failFor {
		return nil, errors.New("cycle failed")
	}
	return &entity.PortfolioSnapshot{WalletAddress: walletAddress, Total: r.totals[walletAddress]}, nil
}

func (r *recordingAggregator) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.callCount
}

func TestRefreshAllRunsEveryWallet(t *testing.T) {
	snapshots := store.NewMemoryPortfolioStore()
	prev := &entity.PortfolioSnapshot{WalletAddress: "0xaaa", List: []entity.PortfolioEntry{{Asset: ethAsset}}}
	require.NoError(t, snapshots.SavePortfolio(context.Background(), prev))

	agg := &recordingAggregator{failFor: "0xbbb"}
	p := NewPortfolioPoller(
		agg,
		stubAssets{assets: []entity.Asset{ethAsset}},
		stubWallets{wallets: []entity.Wallet{{Address: "0xaaa"}, {Address: "0xbbb"}}},
		snapshots, nil, time.Minute, 2, logger.NewSlogAdapter(),
	)

	err := p.RefreshAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0xbbb")

	assert.ElementsMatch(t, []string{"0xaaa", "0xbbb"}, agg.wallets)
	require.NotNil(t, agg.previous["0xaaa"])
	assert.Len(t, agg.previous["0xaaa"].List, 1)
	assert.Nil(t, agg.previous["0xbbb"])
}

func TestRefreshAllWithoutWallets(t *testing.T) {
	agg := &recordingAggregator{}
	p := NewPortfolioPoller(agg, stubAssets{err: errors.New("unused")}, stubWallets{}, store.NewMemoryPortfolioStore(), nil, time.Minute, 1, logger.NewSlogAdapter())

	require.NoError(t, p.RefreshAll(context.Background()))
	assert.Zero(t, agg.calls())
}

func TestRefreshAllAssetFailure(t *testing.T) {
	agg := &recordingAggregator{}
	p := NewPortfolioPoller(agg, stubAssets{err: errors.New("registry down")}, stubWallets{wallets: []entity.Wallet{{Address: "0xaaa"}}},
		store.NewMemoryPortfolioStore(), nil, time.Minute, 1, logger.NewSlogAdapter())

	err := p.RefreshAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry down")
	assert.Zero(t, agg.calls())
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	agg := &recordingAggregator{}
	p := NewPortfolioPoller(agg, stubAssets{assets: []entity.Asset{ethAsset}}, stubWallets{wallets: []entity.Wallet{{Address: "0xaaa"}}},
		store.NewMemoryPortfolioStore(), nil, 10*time.Millisecond, 1, logger.NewSlogAdapter())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return agg.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPollerRejectsBadInterval(t *testing.T) {
	p := NewPortfolioPoller(&recordingAggregator{}, stubAssets{}, stubWallets{}, store.NewMemoryPortfolioStore(), nil, 0, 1, logger.NewSlogAdapter())
	assert.Error(t, p.Run(context.Background()))
}

func TestRefreshAllPublishesPolledTotals(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	agg := &recordingAggregator{totals: map[string]decimal.Decimal{"0xAAA": decimal.NewFromInt(200)}}
	p := NewPortfolioPoller(agg, stubAssets{assets: []entity.Asset{ethAsset}}, stubWallets{wallets: []entity.Wallet{{Address: "0xAAA"}}},
		store.NewMemoryPortfolioStore(), nil, time.Minute, 1, logger.NewSlogAdapter()).WithMetrics(m)

	require.NoError(t, p.RefreshAll(context.Background()))

	assert.Equal(t, 1, testutil.CollectAndCount(m.PortfolioTotalUSD))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.PortfolioTotalUSD.WithLabelValues("0xaaa")))
}

func TestAggregatePortfolioLeavesTotalGaugeToPoller(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	log := logger.NewSlogAdapter()
	svc := NewPortfolioService(NewBalanceResolver(log, BalanceBackends{}), NewPriceService(&fakeSite{}, log, nil, nil), nil,
		store.NewMemoryPortfolioStore(), log, m, PortfolioConfig{ReferenceSymbol: "ETH", MaxConcurrentRoutines: 1, CycleTimeout: time.Second})

	_, err := svc.AggregatePortfolio(context.Background(), []entity.Asset{ethAsset}, nil, "0x1234567890123456789012345678901234567890",
		mockOverrides(map[string][2]string{"ETH": {"1", "10"}}))
	require.NoError(t, err)

	assert.Equal(t, 0, testutil.CollectAndCount(m.PortfolioTotalUSD))
}
