package restapi

import (
	"net/http"
	"strconv"
	"strings"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	apitypes "portfolio_tracker/internal/entity"

	"github.com/gin-gonic/gin"
)

// ExchangeHandler обрабатывает запросы к обменнику.
type ExchangeHandler struct {
	exchange port.ExchangeService
	logger   port.Logger
}

// NewExchangeHandler создает новый экземпляр ExchangeHandler.
func NewExchangeHandler(exchange port.ExchangeService, l port.Logger) *ExchangeHandler {
	return &ExchangeHandler{exchange: exchange, logger: l}
}

// GetMarketInfoHandler returns rate and limits of a pair.
func (h *ExchangeHandler) GetMarketInfoHandler(c *gin.Context) {
	info, err := h.exchange.FetchMarketInfo(c.Request.Context(), c.Param("pair"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": info})
}

// CreateOrderHandler submits a swap order.
func (h *ExchangeHandler) CreateOrderHandler(c *gin.Context) {
	var order entity.ExchangeOrder
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "invalid order body"})
		return
	}
	receipt, err := h.exchange.SubmitExchangeOrder(c.Request.Context(), order)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": receipt})
}

// GetOrderStatusHandler polls the status of a deposit address.
// Query: deposit, receive (swap pair symbols), after (unix millis, optional).
func (h *ExchangeHandler) GetOrderStatusHandler(c *gin.Context) {
	var after *int64
	if raw := strings.TrimSpace(c.Query("after")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "after must be an integer timestamp"})
			return
		}
		after = &v
	}

	status, err := h.exchange.FetchOrderStatus(
		c.Request.Context(),
		strings.ToUpper(c.Query("deposit")),
		strings.ToUpper(c.Query("receive")),
		c.Param("address"),
		after,
	)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// GetSwundleHandler returns the pending swap bundle of an address.
func (h *ExchangeHandler) GetSwundleHandler(c *gin.Context) {
	swap, err := h.exchange.FetchSwapBundle(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, apitypes.SwundleResponse{Result: &apitypes.SwundleResult{Swap: swap}})
}

// SaveSwundleHandler stores the pending swap bundle of an address.
func (h *ExchangeHandler) SaveSwundleHandler(c *gin.Context) {
	var req apitypes.SwundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "invalid swundle body"})
		return
	}
	if err := h.exchange.SaveSwapBundle(c.Request.Context(), c.Param("address"), req.Swap); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteSwundleHandler removes the pending swap bundle of an address.
func (h *ExchangeHandler) DeleteSwundleHandler(c *gin.Context) {
	if err := h.exchange.RemoveSwapBundle(c.Request.Context(), c.Param("address")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
