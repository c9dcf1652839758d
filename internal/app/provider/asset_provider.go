package provider

import (
	"context"
	"fmt"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"

	"github.com/patrickmn/go-cache"
)

const assetsCacheKey = "assets"

type assetProviderImpl struct {
	site     port.SiteAPIClient
	fallback port.AssetRegistryLoader
	cache    *cache.Cache
	logger   port.Logger
}

// NewAssetProvider creates an AssetProvider serving the remote registry, cached
// for ttl. fallback, when set, is used while the remote registry is unreachable.
func NewAssetProvider(site port.SiteAPIClient, fallback port.AssetRegistryLoader, ttl time.Duration, logger port.Logger) port.AssetProvider {
	return &assetProviderImpl{
		site:     site,
		fallback: fallback,
		cache:    cache.New(ttl, 2*ttl),
		logger:   logger,
	}
}

// GetAssets returns the asset registry.
func (p *assetProviderImpl) GetAssets(ctx context.Context) ([]entity.Asset, error) {
	if cached, ok := p.cache.Get(assetsCacheKey); ok {
		if assets, ok := cached.([]entity.Asset); ok {
			p.logger.Debug("Returning cached assets", "count", len(assets))
			return cloneAssets(assets), nil
		}
	}

	assets, err := p.site.GetAssets(ctx)
	if err == nil {
		p.cache.SetDefault(assetsCacheKey, assets)
		p.logger.Info("Assets loaded and cached successfully", "count", len(assets))
		return cloneAssets(assets), nil
	}
	p.logger.Error("Failed to fetch assets", "error", err)

	if p.fallback == nil {
		return nil, fmt.Errorf("failed to fetch assets: %w", err)
	}
	local, ferr := p.fallback.LoadAssets()
	if ferr != nil {
		p.logger.Error("Failed to load fallback asset registry", "error", ferr)
		return nil, fmt.Errorf("failed to fetch assets: %w (fallback: %v)", err, ferr)
	}
	p.logger.Warn("Serving assets from local registry", "count", len(local))
	return local, nil
}

func cloneAssets(in []entity.Asset) []entity.Asset {
	out := make([]entity.Asset, len(in))
	copy(out, in)
	return out
}
