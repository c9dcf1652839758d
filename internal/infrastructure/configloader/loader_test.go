package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SITE_URL", "API_URL", "SERVER_PORT", "LOG_LEVEL", "ETH_RPC_URL", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "logging:\n  level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "https://faa.st", cfg.Faast.SiteURL)
	assert.Equal(t, int64(10000), cfg.Faast.RequestTimeoutMillis)
	assert.Equal(t, []string{"ETH"}, cfg.Portfolio.NativeAssets)
	assert.Equal(t, "ETH", cfg.Portfolio.ReferenceSymbol)
	assert.Equal(t, 10, cfg.Performance.MaxConcurrentRoutines)
	assert.Equal(t, 10, cfg.Performance.RPCCallTimeoutSeconds)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SITE_URL", "http://site.local")
	t.Setenv("API_URL", "http://api.local")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ETH_RPC_URL", "http://node.local")
	t.Setenv("REDIS_ADDR", "redis.local:6379")

	path := writeConfig(t, `
faast:
  siteURL: https://ignored
networks:
  - name: ethereum
    rpcURL: https://ignored-too
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://site.local", cfg.Faast.SiteURL)
	assert.Equal(t, "http://api.local", cfg.Faast.APIURL)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.local:6379", cfg.Redis.Addr)
	assert.Equal(t, "portfolio", cfg.Redis.KeyPrefix)

	node, ok := cfg.NetworkOverride("ethereum")
	require.True(t, ok)
	assert.Equal(t, "http://node.local", node.RPCURL)
}

func TestLoadMocks(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
mocks:
  ETH:
    balance: "2"
    price: "100.25"
  OMG:
    price: "0.5"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	mocks, err := cfg.MockOverrides()
	require.NoError(t, err)

	balance, ok := mocks.Balance("ETH")
	require.True(t, ok)
	assert.Equal(t, "2", balance.String())

	price, ok := mocks.Price("ETH")
	require.True(t, ok)
	assert.Equal(t, "100.25", price.String())

	_, ok = mocks.Balance("OMG")
	assert.False(t, ok)
	_, ok = mocks.Price("BTC")
	assert.False(t, ok)
}

func TestLoadRejectsInvalidMock(t *testing.T) {
	path := writeConfig(t, "mocks:\n  ETH:\n    price: abc\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mocks.ETH.price")
}

func TestLoadRejectsNegativeMock(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "balance", body: "mocks:\n  ETH:\n    balance: \"-2\"\n", want: "mocks.ETH.balance: must not be negative"},
		{name: "price", body: "mocks:\n  OMG:\n    price: \"-0.01\"\n", want: "mocks.OMG.price: must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORTFOLIO_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PORTFOLIO_TEST_VALUE") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "from-dotenv", os.Getenv("PORTFOLIO_TEST_VALUE"))
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, PathFromEnv())

	t.Setenv("CONFIG_PATH", "/etc/portfolio.yml")
	assert.Equal(t, "/etc/portfolio.yml", PathFromEnv())
}
