package port

import (
	"context"

	"portfolio_tracker/internal/domain/entity"
)

// AssetProvider returns the asset registry.
type AssetProvider interface {
	GetAssets(ctx context.Context) ([]entity.Asset, error)
}

// AssetRegistryLoader loads an asset registry from local storage.
type AssetRegistryLoader interface {
	LoadAssets() ([]entity.Asset, error)
}
