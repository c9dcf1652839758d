package port

import (
	"context"

	"portfolio_tracker/internal/domain/entity"
)

// PortfolioService defines the interface for building wallet portfolio snapshots.
type PortfolioService interface {
	// AggregatePortfolio runs one aggregation cycle and stores the resulting snapshot.
	// previous may be nil; when it holds a non-empty list that list is reused as the worklist.
	AggregatePortfolio(
		ctx context.Context,
		assets []entity.Asset,
		previous *entity.PortfolioSnapshot,
		walletAddress string,
		mocks entity.MockOverrides,
	) (*entity.PortfolioSnapshot, error)
}

// PortfolioStore holds the latest snapshot and loading flag per wallet.
// SavePortfolio replaces the previous snapshot atomically.
type PortfolioStore interface {
	SetLoading(ctx context.Context, walletAddress string, loading bool) error
	IsLoading(ctx context.Context, walletAddress string) (bool, error)
	SavePortfolio(ctx context.Context, snapshot *entity.PortfolioSnapshot) error
	// GetPortfolio returns nil without error when no snapshot exists.
	GetPortfolio(ctx context.Context, walletAddress string) (*entity.PortfolioSnapshot, error)
}
