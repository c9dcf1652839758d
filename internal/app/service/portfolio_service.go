package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/pkg/metrics"
	"portfolio_tracker/internal/pkg/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const defaultCycleTimeout = time.Minute

// PortfolioConfig controls an aggregation cycle.
type PortfolioConfig struct {
	// NativeAssets are the non-token symbols eligible for a portfolio.
	NativeAssets []string
	// ReferenceSymbol is always shown, even with a zero balance.
	ReferenceSymbol       string
	MaxConcurrentRoutines int
	CycleTimeout          time.Duration
}

// PortfolioServiceImpl implements port.PortfolioService.
type PortfolioServiceImpl struct {
	resolver  *BalanceResolver
	prices    port.PriceService
	batches   port.BatchFactory
	store     port.PortfolioStore
	logger    port.Logger
	metrics   *metrics.Metrics
	cfg       PortfolioConfig
	nativeSet map[string]struct{}
	group     singleflight.Group
	now       func() time.Time
}

var _ port.PortfolioService = (*PortfolioServiceImpl)(nil)

// NewPortfolioService creates a new instance of PortfolioServiceImpl.
// batches may be nil, in which case every balance lookup is sent on its own.
func NewPortfolioService(
	resolver *BalanceResolver,
	prices port.PriceService,
	batches port.BatchFactory,
	store port.PortfolioStore,
	l port.Logger,
	m *metrics.Metrics,
	cfg PortfolioConfig,
) *PortfolioServiceImpl {
	if cfg.MaxConcurrentRoutines <= 0 {
		cfg.MaxConcurrentRoutines = 1
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = defaultCycleTimeout
	}
	nativeSet := make(map[string]struct{}, len(cfg.NativeAssets))
	for _, s := range cfg.NativeAssets {
		nativeSet[s] = struct{}{}
	}
	return &PortfolioServiceImpl{
		resolver:  resolver,
		prices:    prices,
		batches:   batches,
		store:     store,
		logger:    l,
		metrics:   m,
		cfg:       cfg,
		nativeSet: nativeSet,
		now:       time.Now,
	}
}

// AggregatePortfolio implements port.PortfolioService. Concurrent calls for the
// same wallet share one cycle and its result.
func (s *PortfolioServiceImpl) AggregatePortfolio(
	ctx context.Context,
	assets []entity.Asset,
	previous *entity.PortfolioSnapshot,
	walletAddress string,
	mocks entity.MockOverrides,
) (*entity.PortfolioSnapshot, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return nil, entity.NewValidationError("wallet address is required")
	}

	key := strings.ToLower(walletAddress)
	v, err, shared := s.group.Do(key, func() (any, error) {
		// The cycle outlives a cancelled caller because other callers may share it.
		cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CycleTimeout)
		defer cancel()
		return s.runCycle(cycleCtx, assets, previous, walletAddress, mocks)
	})
	if shared {
		s.metrics.IncCoalesced()
	}
	if err != nil {
		return nil, err
	}
	return v.(*entity.PortfolioSnapshot).Clone(), nil
}

func (s *PortfolioServiceImpl) runCycle(
	ctx context.Context,
	assets []entity.Asset,
	previous *entity.PortfolioSnapshot,
	walletAddress string,
	mocks entity.MockOverrides,
) (snapshot *entity.PortfolioSnapshot, err error) {
	started := time.Now()
	s.logger.Info("Начинаем агрегацию портфеля", "wallet", walletAddress)

	if err := s.store.SetLoading(ctx, walletAddress, true); err != nil {
		s.metrics.ObserveCycle("error", started)
		s.logger.Error("Failed to set loading flag", "wallet", walletAddress, "error", err)
		return nil, fmt.Errorf("failed to set loading flag for %s: %w", walletAddress, err)
	}
	defer func() {
		if resetErr := s.store.SetLoading(context.WithoutCancel(ctx), walletAddress, false); resetErr != nil {
			s.logger.Error("Failed to reset loading flag", "wallet", walletAddress, "error", resetErr)
			if err == nil {
				err = fmt.Errorf("failed to reset loading flag for %s: %w", walletAddress, resetErr)
				snapshot = nil
			}
		}
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		s.metrics.ObserveCycle(outcome, started)
	}()

	var list []entity.PortfolioEntry
	if previous != nil && len(previous.List) > 0 {
		list = previous.Clone().List
	} else {
		list = s.prepareWorklist(assets, mocks)
	}

	list = s.prices.FetchFiatPrices(ctx, list, mocks)

	errs := s.resolveBalances(ctx, list, walletAddress, mocks)

	snapshot = BuildSnapshot(walletAddress, list, s.cfg.ReferenceSymbol, s.now().UTC())
	snapshot.Errors = errs

	if err := s.store.SavePortfolio(ctx, snapshot); err != nil {
		s.logger.Error("Failed to save portfolio snapshot", "wallet", walletAddress, "error", err)
		return nil, fmt.Errorf("failed to save portfolio for %s: %w", walletAddress, err)
	}

	s.logger.Info("Агрегация портфеля завершена",
		"wallet", walletAddress,
		"entries", len(snapshot.List),
		"total", snapshot.Total.String(),
		"balance_errors", len(errs),
		"duration", time.Since(started).String())
	return snapshot, nil
}

// prepareWorklist turns the registry into portfolio entries and marks which of
// them can be both tracked and swapped.
func (s *PortfolioServiceImpl) prepareWorklist(assets []entity.Asset, mocks entity.MockOverrides) []entity.PortfolioEntry {
	s.logger.Debug("Preparing portfolio worklist", "assets", len(assets))

	list := make([]entity.PortfolioEntry, 0, len(assets))
	for _, a := range assets {
		if a.ERC20 && !a.HasContract() {
			s.logger.Warn("contractAddress is missing for ERC20 token", "symbol", a.Symbol)
		}
		_, native := s.nativeSet[a.Symbol]
		portfolioSupport := (a.ERC20 && a.HasContract()) || native
		a.Portfolio = portfolioSupport && a.SupportsSwap()

		entry := entity.PortfolioEntry{Asset: a}
		if mockPrice, ok := mocks.Price(a.Symbol); ok {
			p := mockPrice
			entry.Price = &p
		}
		list = append(list, entry)
	}
	return list
}

// resolveBalances registers every lookup on one batch, sends it once and joins
// the results. Failed lookups become zero and are reported as PortfolioError.
func (s *PortfolioServiceImpl) resolveBalances(
	ctx context.Context,
	list []entity.PortfolioEntry,
	walletAddress string,
	mocks entity.MockOverrides,
) []entity.PortfolioError {
	var batch port.BatchContext
	if s.batches != nil {
		batch = s.batches.NewBatch()
	}

	futures := make([]port.BalanceFuture, len(list))
	for i := range list {
		futures[i] = s.resolver.ResolveBalance(ctx, list[i].Asset, walletAddress, mocks, batch)
	}

	if batch != nil && batch.Len() > 0 {
		s.logger.Debug("Executing balance batch", "wallet", walletAddress, "calls", batch.Len())
		if err := batch.Execute(ctx); err != nil {
			s.logger.Warn("Balance batch failed", "wallet", walletAddress, "error", err)
		}
	}

	failures := make([]*entity.PortfolioError, len(list))

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrentRoutines)
	for i := range list {
		g.Go(func() error {
			raw, err := futures[i](ctx)
			if err == nil && raw.IsNegative() {
				err = fmt.Errorf("negative balance %s for %s", raw, list[i].Symbol)
			}
			if err != nil {
				s.logger.Warn("Error retrieving balance", "symbol", list[i].Symbol, "wallet", walletAddress, "error", err)
				s.metrics.IncBalanceFailure(list[i].Symbol)
				failures[i] = &entity.PortfolioError{
					WalletAddress: walletAddress,
					TokenSymbol:   list[i].Symbol,
					TokenAddress:  list[i].ContractAddress,
					IsNative:      !list[i].ERC20,
					Message:       err.Error(),
				}
				list[i].Balance = decimal.Zero
				return nil
			}
			list[i].Balance = utils.ToMainUnit(raw, list[i].Decimals)
			return nil
		})
	}
	_ = g.Wait()

	var errs []entity.PortfolioError
	for _, f := range failures {
		if f != nil {
			errs = append(errs, *f)
		}
	}
	return errs
}
