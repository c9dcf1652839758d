package port

import (
	"context"

	"portfolio_tracker/internal/domain/entity"
	apitypes "portfolio_tracker/internal/entity"
)

// ExchangeAPIClient talks to the exchange API.
type ExchangeAPIClient interface {
	GetMarketInfo(ctx context.Context, pair string) (entity.MarketInfo, error)
	PostShift(ctx context.Context, order entity.ExchangeOrder) (entity.OrderReceipt, error)
	GetTxStatus(ctx context.Context, address string, after *int64) (entity.OrderStatus, error)
	GetSwundle(ctx context.Context, address string) (apitypes.SwundleResponse, error)
	PostSwundle(ctx context.Context, address string, swap entity.SwapBundle) error
	DeleteSwundle(ctx context.Context, address string) error
}

// ExchangeService submits and tracks swap orders.
type ExchangeService interface {
	FetchMarketInfo(ctx context.Context, pair string) (entity.MarketInfo, error)
	SubmitExchangeOrder(ctx context.Context, order entity.ExchangeOrder) (entity.OrderReceipt, error)
	FetchOrderStatus(ctx context.Context, depositSymbol, receiveSymbol, address string, since *int64) (entity.OrderStatus, error)
	FetchSwapBundle(ctx context.Context, address string) (entity.SwapBundle, error)
	SaveSwapBundle(ctx context.Context, address string, swap entity.SwapBundle) error
	RemoveSwapBundle(ctx context.Context, address string) error
}

// SwapOrderStore keeps local swap state: order records per swap pair and the
// pending bundle per wallet.
type SwapOrderStore interface {
	UpdateSwapOrder(depositSymbol, receiveSymbol string, order entity.SwapOrder)
	SwapOrder(depositSymbol, receiveSymbol string) (entity.SwapOrder, bool)
	SaveBundle(address string, swap entity.SwapBundle)
	Bundle(address string) (entity.SwapBundle, bool)
	ClearBundle(address string)
}
