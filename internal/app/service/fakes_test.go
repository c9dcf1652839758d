package service

import (
	"context"
	"errors"
	"sync"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	apitypes "portfolio_tracker/internal/entity"

	"github.com/shopspring/decimal"
)

// fakeSite is a scripted port.SiteAPIClient.
type fakeSite struct {
	mu         sync.Mutex
	prices     []apitypes.PriceData
	pricesErr  error
	single     map[string]apitypes.PriceData
	chart      apitypes.ChartResponse
	chartErr   error
	priceCalls int
	chartCalls int
	// gate, when set, blocks GetPortfolioPrices until closed.
	gate chan struct{}
}

func (f *fakeSite) GetAssets(context.Context) ([]entity.Asset, error) { return nil, nil }

func (f *fakeSite) GetPortfolioPrices(ctx context.Context) ([]apitypes.PriceData, error) {
	f.mu.Lock()
	f.priceCalls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.prices, f.pricesErr
}

func (f *fakeSite) GetPortfolioPrice(_ context.Context, symbol string) (apitypes.PriceData, error) {
	p, ok := f.single[symbol]
	if !ok {
		return apitypes.PriceData{}, &entity.ServiceError{Category: entity.CategoryService, Message: "unknown symbol"}
	}
	return p, nil
}

func (f *fakeSite) GetPortfolioChart(context.Context, string) (apitypes.ChartResponse, error) {
	f.mu.Lock()
	f.chartCalls++
	f.mu.Unlock()
	return f.chart, f.chartErr
}

func (f *fakeSite) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.priceCalls
}

// fakeBatch resolves every registered call on Execute.
type fakeBatch struct {
	mu       sync.Mutex
	calls    []func() error
	results  []error
	done     chan struct{}
	executed int
}

func newFakeBatch() *fakeBatch { return &fakeBatch{done: make(chan struct{})} }

type fakePending struct {
	b   *fakeBatch
	idx int
}

func (p fakePending) Wait(ctx context.Context) error {
	select {
	case <-p.b.done:
		return p.b.results[p.idx]
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *fakeBatch) Add(method string, result any, args ...any) port.PendingCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn := args[0].(func() error)
	b.calls = append(b.calls, fn)
	return fakePending{b: b, idx: len(b.calls) - 1}
}

func (b *fakeBatch) Execute(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.executed++
	if b.executed > 1 {
		return errors.New("already executed")
	}
	b.results = make([]error, len(b.calls))
	for i, fn := range b.calls {
		b.results[i] = fn()
	}
	close(b.done)
	return nil
}

func (b *fakeBatch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

type fakeBatchFactory struct {
	mu      sync.Mutex
	batches []*fakeBatch
}

func (f *fakeBatchFactory) NewBatch() port.BatchContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := newFakeBatch()
	f.batches = append(f.batches, b)
	return b
}

// fakeBackend returns base-unit balances per symbol through the batch.
type fakeBackend struct {
	kind     entity.BackendKind
	balances map[string]decimal.Decimal
	failures map[string]error
}

func (f *fakeBackend) Kind() entity.BackendKind { return f.kind }

func (f *fakeBackend) RequestBalance(_ context.Context, asset entity.Asset, _ string, batch port.BatchContext) port.BalanceFuture {
	var value decimal.Decimal
	lookup := func() error {
		if err, ok := f.failures[asset.Symbol]; ok {
			return err
		}
		value = f.balances[asset.Symbol]
		return nil
	}
	if batch == nil {
		err := lookup()
		return func(context.Context) (decimal.Decimal, error) { return value, err }
	}
	call := batch.Add("fake_balance", nil, lookup)
	return func(ctx context.Context) (decimal.Decimal, error) {
		if err := call.Wait(ctx); err != nil {
			return decimal.Zero, err
		}
		return value, nil
	}
}

// recordingStore wraps a PortfolioStore and records loading transitions.
type recordingStore struct {
	port.PortfolioStore
	mu          sync.Mutex
	transitions []bool
	saveErr     error
	saves       int
}

func (s *recordingStore) SetLoading(ctx context.Context, wallet string, loading bool) error {
	s.mu.Lock()
	s.transitions = append(s.transitions, loading)
	s.mu.Unlock()
	return s.PortfolioStore.SetLoading(ctx, wallet, loading)
}

func (s *recordingStore) SavePortfolio(ctx context.Context, snap *entity.PortfolioSnapshot) error {
	s.mu.Lock()
	s.saves++
	err := s.saveErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.PortfolioStore.SavePortfolio(ctx, snap)
}

func (s *recordingStore) loadingTransitions() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.transitions...)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mockOverrides(pairs map[string][2]string) entity.MockOverrides {
	out := entity.MockOverrides{}
	for symbol, v := range pairs {
		var o entity.MockOverride
		if v[0] != "" {
			o.Balance = decimal.NewNullDecimal(dec(v[0]))
		}
		if v[1] != "" {
			o.Price = decimal.NewNullDecimal(dec(v[1]))
		}
		out[symbol] = o
	}
	return out
}
