package networkdefinition

import (
	"testing"

	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/infrastructure/configloader"
	"portfolio_tracker/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderDefaults(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewSlogAdapter(), nil)

	eth, ok := p.GetNetworkDefinitionBySymbol("eth")
	require.True(t, ok)
	assert.Equal(t, entity.NativeBackend, eth.BalanceBackend)
	assert.Equal(t, Ethereum.PrimaryRPCURL, eth.PrimaryRPCURL)

	host, ok := p.GetTokenHostNetwork()
	require.True(t, ok)
	assert.Equal(t, "ethereum", host.Identifier)

	btc, ok := p.GetNetworkDefinitionBySymbol("BTC")
	require.True(t, ok)
	assert.Equal(t, entity.UnsupportedBackend, btc.BalanceBackend)

	_, ok = p.GetNetworkDefinitionBySymbol("DOGE")
	assert.False(t, ok)

	assert.Equal(t,
		[]string{"BCH", "BTC", "BTG", "DASH", "ETC", "LTC", "MIOTA", "NEO", "XMR", "ZEC"},
		p.UnsupportedSymbols())
	assert.Len(t, p.GetAllNetworkDefinitions(), 11)
}

func TestProviderAppliesRPCOverride(t *testing.T) {
	cfg := &configloader.Config{Networks: []configloader.NetworkNodeConfig{
		{Name: "ethereum", RPCURL: "http://localhost:8545", FallbackRPCURLs: []string{"http://localhost:8546"}},
		{Name: "bitcoin", RPCURL: "http://localhost:8332"},
	}}
	p := NewNetworkDefinitionProvider(logger.NewSlogAdapter(), cfg)

	eth, ok := p.GetNetworkDefinitionByName("ethereum")
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8545", eth.PrimaryRPCURL)
	assert.Equal(t, []string{"http://localhost:8546"}, eth.FallbackRPCURLs)

	btc, ok := p.GetNetworkDefinitionByName("bitcoin")
	require.True(t, ok)
	assert.Empty(t, btc.PrimaryRPCURL)

	// Predefined values stay untouched.
	assert.Equal(t, "https://ethereum-rpc.publicnode.com", Ethereum.PrimaryRPCURL)
}
