package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/app/provider"
	"portfolio_tracker/internal/app/service"
	apiclient "portfolio_tracker/internal/client"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/infrastructure/configloader"
	clientprovider "portfolio_tracker/internal/infrastructure/network/client"
	networkdefinition "portfolio_tracker/internal/infrastructure/network/definition"
	"portfolio_tracker/internal/infrastructure/restapi"
	"portfolio_tracker/internal/infrastructure/store"
	"portfolio_tracker/internal/infrastructure/tokenloader"
	"portfolio_tracker/internal/pkg/logger"
	"portfolio_tracker/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := configloader.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: %v\n", err)
		os.Exit(1)
	}

	cfg, err := configloader.Load(configloader.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Не удалось загрузить конфигурацию: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.Init(logger.Options{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to initialize zapLogger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()

	logger.Info("Сервис портфелей запускается...")
	logger.Info("Установлен лимит параллельных горутин", "количество", cfg.Performance.MaxConcurrentRoutines)

	appLogger := logger.NewSlogAdapter()

	mocks, err := cfg.MockOverrides()
	if err != nil {
		logger.Fatal("Некорректная секция mocks", "ошибка", err)
	}
	if len(mocks) > 0 {
		logger.Warn("Mock overrides are active", "symbols", len(mocks))
	}

	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	clientOpts := apiclient.Options{
		Timeout:           time.Duration(cfg.Faast.RequestTimeoutMillis) * time.Millisecond,
		RequestsPerSecond: cfg.Faast.RequestsPerSecond,
		Burst:             cfg.Faast.Burst,
		MaxAttempts:       cfg.Faast.MaxAttempts,
		RetryDelay:        time.Duration(cfg.Faast.RetryDelayMillis) * time.Millisecond,
		Metrics:           appMetrics,
	}
	siteOpts := clientOpts
	siteOpts.BaseURL = cfg.Faast.SiteURL
	siteClient := apiclient.NewSiteClient(siteOpts, zapLogger)
	exchangeOpts := clientOpts
	exchangeOpts.BaseURL = cfg.Faast.APIURL
	exchangeClient := apiclient.NewExchangeClient(exchangeOpts, zapLogger)

	netDefProvider := networkdefinition.NewNetworkDefinitionProvider(logger.NewNamedAdapter("networks"), cfg)
	clientProvider := clientprovider.NewEVMClientProvider(cfg, appLogger.Info, appLogger.Error)
	defer clientProvider.Close()
	logger.Info("BlockchainClientProvider инициализирован.")

	backends, batches := buildBalanceBackends(netDefProvider, clientProvider, appLogger)
	resolver := service.NewBalanceResolver(logger.NewNamedAdapter("resolver"), backends)

	priceService := service.NewPriceService(siteClient, logger.NewNamedAdapter("prices"), cfg, appMetrics)

	portfolioStore, closeStore := buildPortfolioStore(ctx, cfg, appLogger)
	defer closeStore()

	portfolioService := service.NewPortfolioService(
		resolver,
		priceService,
		batches,
		portfolioStore,
		logger.NewNamedAdapter("aggregator"),
		appMetrics,
		service.PortfolioConfig{
			NativeAssets:          cfg.Portfolio.NativeAssets,
			ReferenceSymbol:       cfg.Portfolio.ReferenceSymbol,
			MaxConcurrentRoutines: cfg.Performance.MaxConcurrentRoutines,
			CycleTimeout:          time.Duration(cfg.Portfolio.CycleTimeoutSeconds) * time.Second,
		},
	)
	logger.Info("PortfolioService успешно инициализирован.")

	exchangeService := service.NewExchangeService(exchangeClient, store.NewSwapOrderStore(), logger.NewNamedAdapter("exchange"))

	assetProvider := provider.NewAssetProvider(
		siteClient,
		tokenloader.NewAssetFileLoader(cfg.Portfolio.AssetsFile, appLogger.Warn),
		time.Duration(cfg.Portfolio.AssetsCacheTTLMinutes)*time.Minute,
		logger.NewNamedAdapter("assets"),
	)
	walletProvider := provider.NewWalletProvider(cfg.Portfolio.WalletsFile, appLogger)

	if cfg.Portfolio.PollIntervalSeconds > 0 {
		poller := service.NewPortfolioPoller(
			portfolioService,
			assetProvider,
			walletProvider,
			portfolioStore,
			mocks,
			time.Duration(cfg.Portfolio.PollIntervalSeconds)*time.Second,
			cfg.Performance.MaxConcurrentRoutines,
			logger.NewNamedAdapter("poller"),
		).WithMetrics(appMetrics)
		go func() {
			if err := poller.Run(ctx); err != nil {
				logger.Error("Portfolio poller stopped with error", "ошибка", err)
			}
		}()
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := restapi.SetupRouter(restapi.RouterOptions{
		Portfolio:     restapi.NewPortfolioHandler(portfolioService, assetProvider, portfolioStore, priceService, mocks, logger.NewNamedAdapter("http")),
		Exchange:      restapi.NewExchangeHandler(exchangeService, logger.NewNamedAdapter("http")),
		ZapLogger:     zapLogger.Named("http"),
		EnableSwagger: cfg.Server.EnableSwagger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Запуск HTTP сервера", "адрес", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Не удалось запустить HTTP сервер", "ошибка", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал завершения. Завершение работы HTTP сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка при Graceful Shutdown HTTP сервера", "ошибка", err)
	} else {
		logger.Info("HTTP сервер успешно остановлен.")
	}
	logger.Info("Сервис портфелей остановлен.")
}

// buildBalanceBackends dials the token host network and builds the balance
// dispatch table. The returned factory batches calls to the token host node.
func buildBalanceBackends(
	netDefs *networkdefinition.NetworkDefinitionProvider,
	clients *clientprovider.EVMClientProvider,
	l port.Logger,
) (service.BalanceBackends, port.BatchFactory) {
	backends := service.BalanceBackends{Native: map[string]port.BalanceBackend{}}
	var batches port.BatchFactory

	host, hasHost := netDefs.GetTokenHostNetwork()
	for _, def := range netDefs.GetAllNetworkDefinitions() {
		switch def.BalanceBackend {
		case entity.UnsupportedBackend:
			backends.Native[def.NativeSymbol] = clientprovider.NewUnsupportedBalanceBackend()
		case entity.NativeBackend:
			client, err := clients.GetClient(def)
			if err != nil {
				l.Error("Failed to connect to network, its balances resolve to zero", "network", def.Identifier, "error", err)
				backends.Native[def.NativeSymbol] = clientprovider.NewUnsupportedBalanceBackend()
				continue
			}
			native := port.BalanceBackend(clientprovider.NewNativeBalanceBackend(client))
			if hasHost && def.Identifier == host.Identifier {
				backends.Token = clientprovider.NewTokenBalanceBackend(client)
				batches = client
			} else {
				native = clientprovider.Unbatched(native)
			}
			backends.Native[def.NativeSymbol] = native
		}
	}

	if backends.Token == nil {
		l.Warn("No token host network available, ERC20 balances resolve to zero")
	}
	return backends, batches
}

// buildPortfolioStore returns the Redis store when enabled and reachable, the
// in-memory store otherwise.
func buildPortfolioStore(ctx context.Context, cfg *configloader.Config, l port.Logger) (port.PortfolioStore, func()) {
	if !cfg.Redis.Enabled {
		l.Info("Using in-memory portfolio store")
		return store.NewMemoryPortfolioStore(), func() {}
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		l.Error("Redis is unreachable, falling back to in-memory portfolio store", "addr", cfg.Redis.Addr, "error", err)
		_ = rdb.Close()
		return store.NewMemoryPortfolioStore(), func() {}
	}

	l.Info("Using Redis portfolio store", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.KeyPrefix)
	ttl := time.Duration(cfg.Redis.SnapshotTTLMinutes) * time.Minute
	cycleTimeout := time.Duration(cfg.Portfolio.CycleTimeoutSeconds) * time.Second
	redisStore := store.NewRedisPortfolioStore(rdb, cfg.Redis.KeyPrefix, ttl).WithCycleTimeout(cycleTimeout)
	return redisStore, func() {
		if err := rdb.Close(); err != nil {
			l.Warn("Failed to close Redis client", "error", err)
		}
	}
}
