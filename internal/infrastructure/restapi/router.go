package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// RouterOptions собирает зависимости HTTP слоя.
type RouterOptions struct {
	Portfolio *PortfolioHandler
	Exchange  *ExchangeHandler
	ZapLogger *zap.Logger
	// Gatherer serves /metrics; prometheus.DefaultGatherer when nil.
	Gatherer      prometheus.Gatherer
	EnableSwagger bool
	// SwaggerSpecPath is the local swagger.yaml served at /docs/swagger.yaml.
	SwaggerSpecPath string
}

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
func SetupRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(RequestIDMiddleware())
	if opts.ZapLogger != nil {
		router.Use(ZapLoggerMiddleware(opts.ZapLogger))
	}
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	if h := opts.Portfolio; h != nil {
		v1.GET("/assets", h.GetAssetsHandler)
		v1.GET("/portfolios/:wallet", h.GetPortfolioHandler)
		v1.POST("/portfolios/:wallet/refresh", h.RefreshPortfolioHandler)
		v1.GET("/prices/:symbol", h.GetPriceHandler)
		v1.GET("/charts/:symbol", h.GetChartHandler)
	}
	if h := opts.Exchange; h != nil {
		v1.GET("/marketinfo/:pair", h.GetMarketInfoHandler)
		v1.POST("/orders", h.CreateOrderHandler)
		v1.GET("/orders/:address/status", h.GetOrderStatusHandler)
		v1.GET("/swundles/:address", h.GetSwundleHandler)
		v1.POST("/swundles/:address", h.SaveSwundleHandler)
		v1.DELETE("/swundles/:address", h.DeleteSwundleHandler)
	}

	if opts.EnableSwagger {
		specPath := opts.SwaggerSpecPath
		if specPath == "" {
			specPath = "./docs/swagger.yaml"
		}
		router.StaticFile("/docs/swagger.yaml", specPath)
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.yaml")))
	}

	return router
}
