package restapi

import (
	"net/http"
	"strings"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// APIPortfolioResponse определяет структуру ответа для эндпоинтов портфеля.
type APIPortfolioResponse struct {
	Data          PortfolioData           `json:"data"`
	ServiceErrors []entity.PortfolioError `json:"service_errors,omitempty"`
	StatusMessage string                  `json:"status_message"`
}

// PortfolioData is the payload of APIPortfolioResponse.
type PortfolioData struct {
	Portfolio *entity.PortfolioSnapshot `json:"portfolio"`
	Loading   bool                      `json:"loading"`
}

// APIErrorResponse is returned for every failed request.
type APIErrorResponse struct {
	Error string `json:"error"`
}

// PortfolioHandler обрабатывает HTTP запросы, связанные с портфелями и ценами.
type PortfolioHandler struct {
	portfolios port.PortfolioService
	assets     port.AssetProvider
	store      port.PortfolioStore
	prices     port.PriceService
	mocks      entity.MockOverrides
	logger     port.Logger
}

// NewPortfolioHandler создает новый экземпляр PortfolioHandler.
func NewPortfolioHandler(
	portfolios port.PortfolioService,
	assets port.AssetProvider,
	store port.PortfolioStore,
	prices port.PriceService,
	mocks entity.MockOverrides,
	l port.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios: portfolios,
		assets:     assets,
		store:      store,
		prices:     prices,
		mocks:      mocks,
		logger:     l,
	}
}

// GetAssetsHandler returns the asset registry.
func (h *PortfolioHandler) GetAssetsHandler(c *gin.Context) {
	assets, err := h.assets.GetAssets(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assets})
}

// GetPortfolioHandler returns the stored snapshot of a wallet and its loading flag.
func (h *PortfolioHandler) GetPortfolioHandler(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	loading, err := h.store.IsLoading(ctx, wallet)
	if err != nil {
		h.writeError(c, err)
		return
	}
	snapshot, err := h.store.GetPortfolio(ctx, wallet)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response := APIPortfolioResponse{Data: PortfolioData{Portfolio: snapshot, Loading: loading}}
	switch {
	case snapshot == nil && loading:
		response.StatusMessage = "Portfolio is being aggregated."
	case snapshot == nil:
		c.JSON(http.StatusNotFound, APIErrorResponse{Error: "no portfolio snapshot for wallet, request a refresh first"})
		return
	case len(snapshot.Errors) > 0:
		response.ServiceErrors = snapshot.Errors
		response.StatusMessage = "Portfolio retrieved. Some balances may have encountered errors."
	default:
		response.StatusMessage = "Portfolio retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}

// RefreshPortfolioHandler runs an aggregation cycle for the wallet and returns
// the fresh snapshot.
func (h *PortfolioHandler) RefreshPortfolioHandler(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	assets, err := h.assets.GetAssets(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	previous, err := h.store.GetPortfolio(ctx, wallet)
	if err != nil {
		h.logger.Warn("Failed to read previous snapshot, starting fresh", "wallet", wallet, "error", err)
		previous = nil
	}

	snapshot, err := h.portfolios.AggregatePortfolio(ctx, assets, previous, wallet, h.mocks)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response := APIPortfolioResponse{
		Data:          PortfolioData{Portfolio: snapshot},
		ServiceErrors: snapshot.Errors,
		StatusMessage: "Portfolio aggregated successfully.",
	}
	if len(snapshot.Errors) > 0 {
		response.StatusMessage = "Portfolio aggregated. Some balances may have encountered errors."
	}
	c.JSON(http.StatusOK, response)
}

// GetPriceHandler returns the fiat quote of a symbol.
func (h *PortfolioHandler) GetPriceHandler(c *gin.Context) {
	quote, err := h.prices.FetchSinglePrice(c.Request.Context(), strings.ToUpper(c.Param("symbol")), h.mocks)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quote})
}

// GetChartHandler returns the fiat price history of a symbol.
func (h *PortfolioHandler) GetChartHandler(c *gin.Context) {
	chart, err := h.prices.FetchPriceHistory(c.Request.Context(), strings.ToUpper(c.Param("symbol")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": chart})
}

func (h *PortfolioHandler) writeError(c *gin.Context, err error) {
	writeError(c, h.logger, err)
}

func walletParam(c *gin.Context) (string, bool) {
	wallet := strings.TrimSpace(c.Param("wallet"))
	if !common.IsHexAddress(wallet) || !strings.HasPrefix(strings.ToLower(wallet), "0x") {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "invalid wallet address"})
		return "", false
	}
	return wallet, true
}

// writeError answers with the status and message of a ServiceError; any other
// error is reported as an internal error without details.
func writeError(c *gin.Context, l port.Logger, err error) {
	if se, ok := entity.AsServiceError(err); ok {
		status := se.HTTPStatus()
		if status >= http.StatusInternalServerError {
			l.Warn("Upstream request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(status, APIErrorResponse{Error: se.Message})
		return
	}
	l.Error("Request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, APIErrorResponse{Error: "internal error"})
}
