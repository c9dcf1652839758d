package client

import (
	"context"
	"strconv"

	"portfolio_tracker/internal/domain/entity"
	apitypes "portfolio_tracker/internal/entity"

	"go.uber.org/zap"
)

// ExchangeClient реализует port.ExchangeAPIClient.
type ExchangeClient struct {
	api *apiClient
}

// NewExchangeClient creates a client for the exchange API.
func NewExchangeClient(opts Options, logger *zap.Logger) *ExchangeClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExchangeClient{api: newAPIClient(opts, logger.Named("exchange_client"))}
}

// GetMarketInfo fetches rate and limits for a pair such as "eth_btc".
func (c *ExchangeClient) GetMarketInfo(ctx context.Context, pair string) (entity.MarketInfo, error) {
	var info entity.MarketInfo
	if err := c.api.get(ctx, "/marketinfo/"+escapeSegment(pair), &info, true); err != nil {
		return entity.MarketInfo{}, err
	}
	return info, nil
}

// PostShift submits an exchange order.
func (c *ExchangeClient) PostShift(ctx context.Context, order entity.ExchangeOrder) (entity.OrderReceipt, error) {
	var receipt entity.OrderReceipt
	if err := c.api.post(ctx, "/shift", order, &receipt); err != nil {
		return entity.OrderReceipt{}, err
	}
	return receipt, nil
}

// GetTxStatus fetches the status of the order bound to a deposit address.
// An "error" field in the body is part of the status, not a failure.
func (c *ExchangeClient) GetTxStatus(ctx context.Context, address string, after *int64) (entity.OrderStatus, error) {
	path := "/txStat/" + escapeSegment(address)
	if after != nil {
		path += "?after=" + strconv.FormatInt(*after, 10)
	}

	var status entity.OrderStatus
	if err := c.api.get(ctx, path, &status, false); err != nil {
		return entity.OrderStatus{}, err
	}
	return status, nil
}

// GetSwundle fetches the swap bundle stored for address.
func (c *ExchangeClient) GetSwundle(ctx context.Context, address string) (apitypes.SwundleResponse, error) {
	var resp apitypes.SwundleResponse
	if err := c.api.get(ctx, "/swundle/"+escapeSegment(address), &resp, true); err != nil {
		return apitypes.SwundleResponse{}, err
	}
	return resp, nil
}

// PostSwundle stores a swap bundle for address.
func (c *ExchangeClient) PostSwundle(ctx context.Context, address string, swap entity.SwapBundle) error {
	return c.api.post(ctx, "/swundle/"+escapeSegment(address), apitypes.SwundleRequest{Swap: swap}, nil)
}

// DeleteSwundle removes the swap bundle stored for address.
func (c *ExchangeClient) DeleteSwundle(ctx context.Context, address string) error {
	return c.api.delete(ctx, "/swundle/"+escapeSegment(address), nil)
}
