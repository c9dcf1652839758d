package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	apitypes "portfolio_tracker/internal/entity"
	"portfolio_tracker/internal/infrastructure/store"
	"portfolio_tracker/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

type portfolioFixture struct {
	site    *fakeSite
	native  *fakeBackend
	token   *fakeBackend
	batches *fakeBatchFactory
	store   *recordingStore
	svc     *PortfolioServiceImpl
}

func newPortfolioFixture(t *testing.T) *portfolioFixture {
	t.Helper()
	log := logger.NewSlogAdapter()
	f := &portfolioFixture{
		site:    &fakeSite{},
		native:  &fakeBackend{kind: entity.NativeBackend, balances: map[string]decimal.Decimal{}},
		token:   &fakeBackend{kind: entity.TokenBackend, balances: map[string]decimal.Decimal{}},
		batches: &fakeBatchFactory{},
		store:   &recordingStore{PortfolioStore: store.NewMemoryPortfolioStore()},
	}
	resolver := NewBalanceResolver(log, BalanceBackends{
		Native: map[string]port.BalanceBackend{"ETH": f.native},
		Token:  f.token,
	})
	f.svc = NewPortfolioService(resolver, NewPriceService(f.site, log, nil, nil), f.batches, f.store, log, nil, PortfolioConfig{
		NativeAssets:          []string{"ETH"},
		ReferenceSymbol:       "ETH",
		MaxConcurrentRoutines: 4,
		CycleTimeout:          5 * time.Second,
	})
	return f
}

var (
	ethAsset = entity.Asset{Symbol: "ETH", Name: "Ethereum", Decimals: 18, Deposit: true, Receive: true}
	omgAsset = entity.Asset{
		Symbol: "OMG", Name: "OmiseGO", Decimals: 18, ERC20: true,
		ContractAddress: "0xd26114cd6EE289AccF82350c8d8487fedB8A0C07", Deposit: true, Receive: true,
	}
)

func TestAggregatePortfolioWithMocks(t *testing.T) {
	f := newPortfolioFixture(t)
	mocks := mockOverrides(map[string][2]string{"ETH": {"2", "100"}})

	snap, err := f.svc.AggregatePortfolio(context.Background(), []entity.Asset{ethAsset}, nil, testWallet, mocks)
	require.NoError(t, err)

	assert.True(t, snap.Total.Equal(dec("200")), "got %s", snap.Total)
	eth, ok := snap.Entry("ETH")
	require.True(t, ok)
	assert.True(t, eth.Balance.Equal(dec("2")))
	assert.True(t, eth.Fiat.Equal(dec("200")))
	assert.True(t, eth.Percentage.Equal(dec("100")))
	assert.True(t, eth.Shown)
	assert.True(t, eth.Portfolio)
	assert.Empty(t, snap.Errors)
}

func TestAggregatePortfolioLiveBalances(t *testing.T) {
	f := newPortfolioFixture(t)
	f.site.prices = []apitypes.PriceData{
		{Symbol: "ETH", PriceUSD: "100"},
		{Symbol: "OMG", PriceUSD: "2"},
	}
	f.native.balances["ETH"] = dec("2000000000000000000")
	f.token.balances["OMG"] = dec("5000000000000000000")

	snap, err := f.svc.AggregatePortfolio(context.Background(), []entity.Asset{omgAsset, ethAsset}, nil, testWallet, nil)
	require.NoError(t, err)

	require.Len(t, f.batches.batches, 1)
	batch := f.batches.batches[0]
	assert.Equal(t, 2, batch.Len())
	assert.Equal(t, 1, batch.executed)

	assert.True(t, snap.Total.Equal(dec("210")))
	require.Len(t, snap.List, 2)
	assert.Equal(t, "ETH", snap.List[0].Symbol)
	assert.True(t, snap.List[0].Percentage.Equal(dec("95.24")), "got %s", snap.List[0].Percentage)
	assert.True(t, snap.List[1].Percentage.Equal(dec("4.76")))
	assert.True(t, snap.List[1].Balance.Equal(dec("5")))

	stored, err := f.store.GetPortfolio(context.Background(), testWallet)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(snap.Total))
}

func TestAggregatePortfolioLoadingFlag(t *testing.T) {
	f := newPortfolioFixture(t)

	_, err := f.svc.AggregatePortfolio(context.Background(), []entity.Asset{ethAsset}, nil, testWallet, nil)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, f.store.loadingTransitions())
	loading, err := f.store.IsLoading(context.Background(), testWallet)
	require.NoError(t, err)
	assert.False(t, loading)
}

func TestAggregatePortfolioSaveFailure(t *testing.T) {
	f := newPortfolioFixture(t)
	f.store.saveErr = errors.New("disk full")

	snap, err := f.svc.AggregatePortfolio(context.Background(), []entity.Asset{ethAsset}, nil, testWallet, nil)
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, []bool{true, false}, f.store.loadingTransitions())
}

func TestAggregatePortfolioBalanceFailure(t *testing.T) {
	f := newPortfolioFixture(t)
	f.site.prices = []apitypes.PriceData{{Symbol: "ETH", PriceUSD: "100"}, {Symbol: "OMG", PriceUSD: "2"}}
	f.native.failures = map[string]error{"ETH": errors.New("node unreachable")}
	f.token.balances["OMG"] = dec("1000000000000000000")

	snap, err := f.svc.AggregatePortfolio(context.Background(), []entity.Asset{ethAsset, omgAsset}, nil, testWallet, nil)
	require.NoError(t, err)

	eth, _ := snap.Entry("ETH")
	assert.True(t, eth.Balance.IsZero())
	assert.True(t, eth.Shown)

	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "ETH", snap.Errors[0].TokenSymbol)
	assert.True(t, snap.Errors[0].IsNative)
	assert.Equal(t, testWallet, snap.Errors[0].WalletAddress)
	assert.Contains(t, snap.Errors[0].Message, "node unreachable")

	assert.True(t, snap.Total.Equal(dec("2")))
}

func TestAggregatePortfolioNegativeBalanceCountsAsFailure(t *testing.T) {
	f := newPortfolioFixture(t)
	mocks := mockOverrides(map[string][2]string{"ETH": {"-2", "100"}, "OMG": {"1", "10"}})

	snap, err := f.svc.AggregatePortfolio(context.Background(), []entity.Asset{ethAsset, omgAsset}, nil, testWallet, mocks)
	require.NoError(t, err)

	eth, ok := snap.Entry("ETH")
	require.True(t, ok)
	assert.True(t, eth.Balance.IsZero(), "got %s", eth.Balance)
	assert.True(t, eth.Fiat.IsZero())
	assert.True(t, eth.Percentage.IsZero())

	omg, ok := snap.Entry("OMG")
	require.True(t, ok)
	assert.True(t, omg.Percentage.Equal(dec("100")), "got %s", omg.Percentage)

	assert.True(t, snap.Total.Equal(dec("10")), "got %s", snap.Total)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "ETH", snap.Errors[0].TokenSymbol)
	assert.Contains(t, snap.Errors[0].Message, "negative balance")
}

func TestAggregatePortfolioReusesPreviousList(t *testing.T) {
	f := newPortfolioFixture(t)
	f.site.prices = []apitypes.PriceData{{Symbol: "OMG", PriceUSD: "3"}}
	f.token.balances["OMG"] = dec("1000000000000000000")

	previous := &entity.PortfolioSnapshot{
		WalletAddress: testWallet,
		List:          []entity.PortfolioEntry{{Asset: omgAsset}},
	}
	snap, err := f.svc.AggregatePortfolio(context.Background(), []entity.Asset{ethAsset, omgAsset}, previous, testWallet, nil)
	require.NoError(t, err)

	require.Len(t, snap.List, 1)
	assert.Equal(t, "OMG", snap.List[0].Symbol)
	assert.True(t, snap.Total.Equal(dec("3")))
	assert.False(t, previous.List[0].HasPrice(), "previous snapshot is not mutated")
}

func TestAggregatePortfolioWorklistFlags(t *testing.T) {
	f := newPortfolioFixture(t)
	noContract := entity.Asset{Symbol: "BAD", ERC20: true, Deposit: true, Receive: true}
	noSwap := entity.Asset{Symbol: "BTC", Decimals: 8, Deposit: true}

	snap, err := f.svc.AggregatePortfolio(context.Background(), []entity.Asset{ethAsset, omgAsset, noContract, noSwap}, nil, testWallet, nil)
	require.NoError(t, err)

	want := map[string]bool{"ETH": true, "OMG": true, "BAD": false, "BTC": false}
	for symbol, portfolio := range want {
		e, ok := snap.Entry(symbol)
		require.True(t, ok, symbol)
		assert.Equal(t, portfolio, e.Portfolio, symbol)
	}
}

func TestAggregatePortfolioRequiresWallet(t *testing.T) {
	f := newPortfolioFixture(t)

	_, err := f.svc.AggregatePortfolio(context.Background(), nil, nil, "  ", nil)
	require.Error(t, err)
	assert.True(t, entity.IsCategory(err, entity.CategoryValidation))
	assert.Empty(t, f.store.loadingTransitions())
}

func TestAggregatePortfolioReturnsCopy(t *testing.T) {
	f := newPortfolioFixture(t)
	mocks := mockOverrides(map[string][2]string{"ETH": {"1", "10"}})

	snap, err := f.svc.AggregatePortfolio(context.Background(), []entity.Asset{ethAsset}, nil, testWallet, mocks)
	require.NoError(t, err)
	snap.List[0].Fiat = dec("999")

	stored, err := f.store.GetPortfolio(context.Background(), testWallet)
	require.NoError(t, err)
	assert.True(t, stored.List[0].Fiat.Equal(dec("10")))
}

func TestAggregatePortfolioCoalescesConcurrentCalls(t *testing.T) {
	f := newPortfolioFixture(t)
	f.site.gate = make(chan struct{})
	f.site.prices = []apitypes.PriceData{{Symbol: "ETH", PriceUSD: "100"}}
	f.native.balances["ETH"] = dec("1000000000000000000")

	var wg sync.WaitGroup
	results := make([]*entity.PortfolioSnapshot, 2)
	errs := make([]error, 2)

	run := func(i int) {
		defer wg.Done()
		results[i], errs[i] = f.svc.AggregatePortfolio(context.Background(), []entity.Asset{ethAsset}, nil, testWallet, nil)
	}

	wg.Add(1)
	go run(0)
	require.Eventually(t, func() bool { return f.site.calls() == 1 }, time.Second, 5*time.Millisecond)

	wg.Add(1)
	go run(1)
	time.Sleep(50 * time.Millisecond)
	close(f.site.gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, f.site.calls())
	assert.True(t, results[0].Total.Equal(dec("100")))
	assert.True(t, results[1].Total.Equal(dec("100")))
	assert.NotSame(t, results[0], results[1])
	assert.Equal(t, []bool{true, false}, f.store.loadingTransitions())
}
