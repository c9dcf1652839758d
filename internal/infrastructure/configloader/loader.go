package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"portfolio_tracker/internal/domain/entity"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "config/config.yml"

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                   string `yaml:"port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdownTimeoutSeconds"`
	EnableSwagger          bool   `yaml:"enableSwagger"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// FaastConfig describes the site API (asset registry, prices) and the exchange API.
type FaastConfig struct {
	SiteURL              string  `yaml:"siteURL"`
	APIURL               string  `yaml:"apiURL"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RequestsPerSecond    float64 `yaml:"requestsPerSecond"`
	Burst                int     `yaml:"burst"`
	MaxAttempts          int     `yaml:"maxAttempts"`
	RetryDelayMillis     int64   `yaml:"retryDelayMillis"`
}

// PricesConfig holds configuration for the price service.
type PricesConfig struct {
	ChartCacheTTLMinutes int `yaml:"chartCacheTTLMinutes"`
}

// PortfolioConfig holds configuration for the aggregation cycle.
type PortfolioConfig struct {
	// NativeAssets lists the non-token symbols tracked in a portfolio.
	NativeAssets          []string `yaml:"nativeAssets"`
	ReferenceSymbol       string   `yaml:"referenceSymbol"`
	AssetsFile            string   `yaml:"assetsFile"`
	AssetsCacheTTLMinutes int      `yaml:"assetsCacheTTLMinutes"`
	WalletsFile           string   `yaml:"walletsFile"`
	PollIntervalSeconds   int      `yaml:"pollIntervalSeconds"`
	CycleTimeoutSeconds   int      `yaml:"cycleTimeoutSeconds"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	MaxConcurrentRoutines    int `yaml:"max_concurrent_routines"`
	RPCCallTimeoutSeconds    int `yaml:"rpc_call_timeout_seconds"`
	ConnectionTimeoutSeconds int `yaml:"connection_timeout_seconds"`
}

// NetworkNodeConfig overrides the RPC endpoints of a known network.
type NetworkNodeConfig struct {
	Name            string   `yaml:"name"`   // e.g., "ethereum"
	RPCURL          string   `yaml:"rpcURL"` // e.g., "https://eth.llamarpc.com"
	FallbackRPCURLs []string `yaml:"fallbackRpcURLs"`
}

// RedisConfig enables the Redis snapshot store.
type RedisConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Addr               string `yaml:"addr"`
	Password           string `yaml:"password"`
	DB                 int    `yaml:"db"`
	KeyPrefix          string `yaml:"keyPrefix"`
	SnapshotTTLMinutes int    `yaml:"snapshotTTLMinutes"`
}

// MockConfig replaces live balance and/or price data of one symbol.
// Values are decimal strings in display units.
type MockConfig struct {
	Balance *string `yaml:"balance"`
	Price   *string `yaml:"price"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig          `yaml:"server"`
	Logging     LoggingConfig         `yaml:"logging"`
	Faast       FaastConfig           `yaml:"faast"`
	Prices      PricesConfig          `yaml:"prices"`
	Portfolio   PortfolioConfig       `yaml:"portfolio"`
	Performance PerformanceConfig     `yaml:"performance"`
	Networks    []NetworkNodeConfig   `yaml:"networks"`
	Redis       RedisConfig           `yaml:"redis"`
	Mocks       map[string]MockConfig `yaml:"mocks"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
		logrus.Infof("Loaded environment from %s", f)
	}
	return nil
}

// PathFromEnv returns CONFIG_PATH or DefaultPath.
func PathFromEnv() string {
	if p := strings.TrimSpace(os.Getenv("CONFIG_PATH")); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML configuration file from the given path, applies
// environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupEnv("SITE_URL"); ok {
		cfg.Faast.SiteURL = v
	}
	if v, ok := lookupEnv("API_URL"); ok {
		cfg.Faast.APIURL = v
	}
	if v, ok := lookupEnv("SERVER_PORT"); ok {
		cfg.Server.Port = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookupEnv("REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v, ok := lookupEnv("ETH_RPC_URL"); ok {
		for i := range cfg.Networks {
			if cfg.Networks[i].Name == "ethereum" {
				cfg.Networks[i].RPCURL = v
				return
			}
		}
		cfg.Networks = append(cfg.Networks, NetworkNodeConfig{Name: "ethereum", RPCURL: v})
	}
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
		logrus.Infof("Server.Port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Faast.SiteURL == "" {
		cfg.Faast.SiteURL = "https://faa.st"
		logrus.Infof("Faast.SiteURL not set, defaulting to %s", cfg.Faast.SiteURL)
	}
	if cfg.Faast.APIURL == "" {
		cfg.Faast.APIURL = "https://api.faa.st/api/v1/public"
		logrus.Infof("Faast.APIURL not set, defaulting to %s", cfg.Faast.APIURL)
	}
	if cfg.Faast.RequestTimeoutMillis <= 0 {
		cfg.Faast.RequestTimeoutMillis = 10000
		logrus.Infof("Faast.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Faast.RequestTimeoutMillis)
	}
	if cfg.Faast.MaxAttempts <= 0 {
		cfg.Faast.MaxAttempts = 3
	}
	if cfg.Faast.RetryDelayMillis <= 0 {
		cfg.Faast.RetryDelayMillis = 500
	}

	if cfg.Prices.ChartCacheTTLMinutes <= 0 {
		cfg.Prices.ChartCacheTTLMinutes = 5
		logrus.Infof("Prices.ChartCacheTTLMinutes not set, defaulting to %d minutes", cfg.Prices.ChartCacheTTLMinutes)
	}

	if len(cfg.Portfolio.NativeAssets) == 0 {
		cfg.Portfolio.NativeAssets = []string{"ETH"}
		logrus.Infof("Portfolio.NativeAssets not set, defaulting to %v", cfg.Portfolio.NativeAssets)
	}
	if cfg.Portfolio.ReferenceSymbol == "" {
		cfg.Portfolio.ReferenceSymbol = "ETH"
	}
	if cfg.Portfolio.AssetsFile == "" {
		cfg.Portfolio.AssetsFile = "data/assets.json"
	}
	if cfg.Portfolio.AssetsCacheTTLMinutes <= 0 {
		cfg.Portfolio.AssetsCacheTTLMinutes = 60
	}
	if cfg.Portfolio.WalletsFile == "" {
		cfg.Portfolio.WalletsFile = "data/wallets.txt"
	}
	if cfg.Portfolio.CycleTimeoutSeconds <= 0 {
		cfg.Portfolio.CycleTimeoutSeconds = 60
	}

	if cfg.Performance.MaxConcurrentRoutines <= 0 {
		cfg.Performance.MaxConcurrentRoutines = 10
		logrus.Infof("Performance.MaxConcurrentRoutines not set, defaulting to %d", cfg.Performance.MaxConcurrentRoutines)
	}
	if cfg.Performance.RPCCallTimeoutSeconds <= 0 {
		cfg.Performance.RPCCallTimeoutSeconds = 10
		logrus.Infof("Performance.RPCCallTimeoutSeconds not set, defaulting to %d", cfg.Performance.RPCCallTimeoutSeconds)
	}
	if cfg.Performance.ConnectionTimeoutSeconds <= 0 {
		cfg.Performance.ConnectionTimeoutSeconds = 10
	}

	if cfg.Redis.Enabled {
		if cfg.Redis.Addr == "" {
			cfg.Redis.Addr = "localhost:6379"
			logrus.Infof("Redis.Addr not set, defaulting to %s", cfg.Redis.Addr)
		}
		if cfg.Redis.KeyPrefix == "" {
			cfg.Redis.KeyPrefix = "portfolio"
		}
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	for i, network := range c.Networks {
		if strings.TrimSpace(network.Name) == "" {
			return fmt.Errorf("networks[%d]: name is required", i)
		}
	}
	if _, err := c.MockOverrides(); err != nil {
		return err
	}
	return nil
}

// MockOverrides converts the mocks section into domain overrides.
func (c *Config) MockOverrides() (entity.MockOverrides, error) {
	if len(c.Mocks) == 0 {
		return nil, nil
	}
	overrides := make(entity.MockOverrides, len(c.Mocks))
	for symbol, m := range c.Mocks {
		var o entity.MockOverride
		if m.Balance != nil {
			d, err := decimal.NewFromString(strings.TrimSpace(*m.Balance))
			if err != nil {
				return nil, fmt.Errorf("mocks.%s.balance: %w", symbol, err)
			}
			if d.IsNegative() {
				return nil, fmt.Errorf("mocks.%s.balance: must not be negative", symbol)
			}
			o.Balance = decimal.NewNullDecimal(d)
		}
		if m.Price != nil {
			d, err := decimal.NewFromString(strings.TrimSpace(*m.Price))
			if err != nil {
				return nil, fmt.Errorf("mocks.%s.price: %w", symbol, err)
			}
			if d.IsNegative() {
				return nil, fmt.Errorf("mocks.%s.price: must not be negative", symbol)
			}
			o.Price = decimal.NewNullDecimal(d)
		}
		overrides[symbol] = o
	}
	return overrides, nil
}

// NetworkOverride returns the configured node for a network identifier.
func (c *Config) NetworkOverride(identifier string) (NetworkNodeConfig, bool) {
	for _, n := range c.Networks {
		if strings.EqualFold(n.Name, identifier) {
			return n, true
		}
	}
	return NetworkNodeConfig{}, false
}
