package service

import (
	"context"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/pkg/utils"

	"github.com/shopspring/decimal"
)

// BalanceBackends is the dispatch table of a BalanceResolver.
type BalanceBackends struct {
	// Native maps a native symbol (ETH, BTC, ...) to the backend of its chain.
	Native map[string]port.BalanceBackend
	// Token answers balanceOf for contract tokens.
	Token port.BalanceBackend
}

// BalanceResolver picks the balance backend for an asset.
type BalanceResolver struct {
	logger   port.Logger
	backends BalanceBackends
}

// NewBalanceResolver creates a resolver over the given backends.
func NewBalanceResolver(logger port.Logger, backends BalanceBackends) *BalanceResolver {
	if backends.Native == nil {
		backends.Native = map[string]port.BalanceBackend{}
	}
	return &BalanceResolver{logger: logger, backends: backends}
}

// ResolveBalance returns a future for the base-unit balance of asset.
// Configuration problems resolve to zero and are only logged.
func (r *BalanceResolver) ResolveBalance(
	ctx context.Context,
	asset entity.Asset,
	walletAddress string,
	mocks entity.MockOverrides,
	batch port.BatchContext,
) port.BalanceFuture {
	if mock, ok := mocks.Balance(asset.Symbol); ok {
		return resolved(utils.ToBaseUnit(mock, asset.Decimals))
	}

	if backend, ok := r.backends.Native[asset.Symbol]; ok {
		return backend.RequestBalance(ctx, asset, walletAddress, batch)
	}

	if asset.ERC20 {
		if !asset.HasContract() {
			r.logger.Warn("contractAddress is missing for ERC20 token", "symbol", asset.Symbol)
			return resolved(decimal.Zero)
		}
		if r.backends.Token == nil {
			r.logger.Warn("No token backend configured", "symbol", asset.Symbol)
			return resolved(decimal.Zero)
		}
		return r.backends.Token.RequestBalance(ctx, asset, walletAddress, batch)
	}

	r.logger.Info("Cannot get balance for asset", "symbol", asset.Symbol)
	return resolved(decimal.Zero)
}

func resolved(v decimal.Decimal) port.BalanceFuture {
	return func(context.Context) (decimal.Decimal, error) {
		return v, nil
	}
}
