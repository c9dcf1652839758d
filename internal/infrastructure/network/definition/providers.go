package networkdefinition

import (
	"fmt"
	"sort"
	"strings"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/infrastructure/configloader"
)

// NetworkDefinitionProvider provides network definitions.
type NetworkDefinitionProvider struct {
	logger   port.Logger
	bySymbol map[string]entity.NetworkDefinition
	byName   map[string]entity.NetworkDefinition
	ordered  []entity.NetworkDefinition
}

var _ port.NetworkDefinitionProvider = (*NetworkDefinitionProvider)(nil)

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.NetworkDefinition{
		ChainID:          1,
		Name:             "Ethereum Mainnet",
		Identifier:       "ethereum",
		NativeSymbol:     "ETH",
		Decimals:         18,
		PrimaryRPCURL:    "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:  []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		BlockExplorerURL: "https://etherscan.io",
		BalanceBackend:   entity.NativeBackend,
		HostsTokens:      true,
	}
	EthereumClassic = unsupported("ethereum_classic", "Ethereum Classic", "ETC", 18)
	Bitcoin         = unsupported("bitcoin", "Bitcoin", "BTC", 8)
	BitcoinCash     = unsupported("bitcoin_cash", "Bitcoin Cash", "BCH", 8)
	BitcoinGold     = unsupported("bitcoin_gold", "Bitcoin Gold", "BTG", 8)
	Litecoin        = unsupported("litecoin", "Litecoin", "LTC", 8)
	Zcash           = unsupported("zcash", "Zcash", "ZEC", 8)
	Dash            = unsupported("dash", "Dash", "DASH", 8)
	IOTA            = unsupported("iota", "IOTA", "MIOTA", 6)
	Monero          = unsupported("monero", "Monero", "XMR", 12)
	Neo             = unsupported("neo", "NEO", "NEO", 0)
)

// Balance discovery for these chains is not implemented; they resolve to zero.
func unsupported(identifier, name, symbol string, decimals int32) entity.NetworkDefinition {
	return entity.NetworkDefinition{
		Name:           name,
		Identifier:     identifier,
		NativeSymbol:   symbol,
		Decimals:       decimals,
		BalanceBackend: entity.UnsupportedBackend,
	}
}

// KnownDefinitions returns every predefined network.
func KnownDefinitions() []entity.NetworkDefinition {
	return []entity.NetworkDefinition{
		Ethereum,
		EthereumClassic,
		Bitcoin,
		BitcoinCash,
		BitcoinGold,
		Litecoin,
		Zcash,
		Dash,
		IOTA,
		Monero,
		Neo,
	}
}

// NewNetworkDefinitionProvider creates a new NetworkDefinitionProvider.
// RPC endpoints configured under networks override the predefined ones.
func NewNetworkDefinitionProvider(log port.Logger, cfg *configloader.Config) *NetworkDefinitionProvider {
	p := &NetworkDefinitionProvider{
		logger:   log,
		bySymbol: make(map[string]entity.NetworkDefinition),
		byName:   make(map[string]entity.NetworkDefinition),
	}

	for _, def := range KnownDefinitions() {
		if cfg != nil {
			if node, ok := cfg.NetworkOverride(def.Identifier); ok {
				if def.BalanceBackend == entity.UnsupportedBackend {
					p.logger.Warn(fmt.Sprintf("RPC override for network '%s' ignored: no balance backend", def.Identifier))
				} else {
					if node.RPCURL != "" {
						def.PrimaryRPCURL = node.RPCURL
					}
					if len(node.FallbackRPCURLs) > 0 {
						def.FallbackRPCURLs = append([]string(nil), node.FallbackRPCURLs...)
					}
					p.logger.Debug(fmt.Sprintf("Network '%s' uses configured RPC endpoint", def.Identifier), "rpc_primary", def.PrimaryRPCURL)
				}
			}
		}
		p.add(def)
	}

	if cfg != nil {
		for _, node := range cfg.Networks {
			if _, ok := p.byName[strings.ToLower(node.Name)]; !ok {
				p.logger.Warn(fmt.Sprintf("Configured network '%s' has no predefined definition. Skipping.", node.Name))
			}
		}
	}

	p.logger.Info(fmt.Sprintf("NetworkDefinitionProvider initialized. Known networks: %d", len(p.ordered)))
	return p
}

func (p *NetworkDefinitionProvider) add(def entity.NetworkDefinition) {
	p.ordered = append(p.ordered, def)
	p.bySymbol[strings.ToUpper(def.NativeSymbol)] = def
	p.byName[def.Identifier] = def
}

// GetAllNetworkDefinitions returns every known network definition.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defsCopy := make([]entity.NetworkDefinition, len(p.ordered))
	copy(defsCopy, p.ordered)
	return defsCopy
}

// GetNetworkDefinitionByName returns a specific network definition by its identifier.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByName(identifier string) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	def, ok := p.byName[strings.ToLower(identifier)]
	return def, ok
}

// GetNetworkDefinitionBySymbol returns the network whose native asset is symbol.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionBySymbol(symbol string) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	def, ok := p.bySymbol[strings.ToUpper(symbol)]
	return def, ok
}

// GetTokenHostNetwork returns the network answering ERC20 balance calls.
func (p *NetworkDefinitionProvider) GetTokenHostNetwork() (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.ordered {
		if def.HostsTokens {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// UnsupportedSymbols lists the native symbols without balance discovery, sorted.
func (p *NetworkDefinitionProvider) UnsupportedSymbols() []string {
	var symbols []string
	for _, def := range p.ordered {
		if def.BalanceBackend == entity.UnsupportedBackend {
			symbols = append(symbols, def.NativeSymbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}
