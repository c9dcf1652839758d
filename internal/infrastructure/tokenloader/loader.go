package tokenloader

import (
	"fmt"
	"strings"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/pkg/utils"
)

const defaultAssetsFilePath = "data/assets.json"

// AssetFileLoader implements port.AssetRegistryLoader over a JSON file holding
// the same array the asset registry endpoint serves.
type AssetFileLoader struct {
	filePath   string
	loggerWarn func(msg string, args ...any)
}

var _ port.AssetRegistryLoader = (*AssetFileLoader)(nil)

// NewAssetFileLoader creates a loader for filePath (data/assets.json when empty).
func NewAssetFileLoader(filePath string, loggerWarn func(msg string, args ...any)) *AssetFileLoader {
	if filePath == "" {
		filePath = defaultAssetsFilePath
	}
	return &AssetFileLoader{filePath: filePath, loggerWarn: loggerWarn}
}

// LoadAssets reads and validates the registry file. Entries without a symbol
// are skipped, as are repeated symbols after the first.
func (l *AssetFileLoader) LoadAssets() ([]entity.Asset, error) {
	raw, err := utils.LoadJSONFile[[]entity.Asset](l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset registry: %w", err)
	}

	assets := make([]entity.Asset, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, a := range raw {
		a.Symbol = strings.TrimSpace(a.Symbol)
		if a.Symbol == "" {
			l.warn("Asset without symbol in registry file, skipping.", "path", l.filePath, "index", i)
			continue
		}
		if _, dup := seen[a.Symbol]; dup {
			l.warn("Duplicate asset symbol in registry file, skipping.", "path", l.filePath, "symbol", a.Symbol)
			continue
		}
		if a.Decimals < 0 {
			l.warn("Negative decimals in registry file, skipping.", "path", l.filePath, "symbol", a.Symbol)
			continue
		}
		seen[a.Symbol] = struct{}{}
		assets = append(assets, a)
	}
	return assets, nil
}

func (l *AssetFileLoader) warn(msg string, args ...any) {
	if l.loggerWarn != nil {
		l.loggerWarn(msg, args...)
	}
}
