package service

import (
	"context"
	"errors"
	"strings"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
)

// ErrNoSwapBundle is returned when no bundle is stored for an address.
var ErrNoSwapBundle = errors.New("no swap bundle stored")

// exchangeServiceImpl implements port.ExchangeService
type exchangeServiceImpl struct {
	api    port.ExchangeAPIClient
	store  port.SwapOrderStore
	logger port.Logger
}

// NewExchangeService creates a new instance of exchangeServiceImpl.
func NewExchangeService(api port.ExchangeAPIClient, store port.SwapOrderStore, l port.Logger) port.ExchangeService {
	l.Info("ExchangeService успешно инициализирован.")
	return &exchangeServiceImpl{api: api, store: store, logger: l}
}

// FetchMarketInfo implements port.ExchangeService.
func (s *exchangeServiceImpl) FetchMarketInfo(ctx context.Context, pair string) (entity.MarketInfo, error) {
	pair = strings.ToLower(strings.TrimSpace(pair))
	if pair == "" {
		return entity.MarketInfo{}, entity.NewValidationError("pair is required")
	}
	info, err := s.api.GetMarketInfo(ctx, pair)
	if err != nil {
		s.logger.Error("Failed to fetch market info", "pair", pair, "error", err)
		return entity.MarketInfo{}, err
	}
	return info, nil
}

// SubmitExchangeOrder implements port.ExchangeService. Every failure is
// returned with a message that is safe to show to the user.
func (s *exchangeServiceImpl) SubmitExchangeOrder(ctx context.Context, order entity.ExchangeOrder) (entity.OrderReceipt, error) {
	if strings.TrimSpace(order.Pair) == "" || strings.TrimSpace(order.Withdrawal) == "" {
		return entity.OrderReceipt{}, entity.NewValidationError("pair and withdrawal address are required")
	}

	receipt, err := s.api.PostShift(ctx, order)
	if err == nil && (receipt.Error != "" || receipt.OrderID == "") {
		err = &entity.ServiceError{Category: entity.CategoryService, Message: receipt.Error}
	}
	if err != nil {
		s.logger.Error("Failed to submit exchange order", "pair", order.Pair, "error", err)
		return entity.OrderReceipt{}, filtered(err)
	}

	s.logger.Info("Exchange order submitted", "pair", order.Pair, "order_id", receipt.OrderID, "deposit", receipt.Deposit)
	return receipt, nil
}

// FetchOrderStatus implements port.ExchangeService. The status is stored under
// the (deposit, receive) pair even when it carries an error field.
func (s *exchangeServiceImpl) FetchOrderStatus(
	ctx context.Context,
	depositSymbol, receiveSymbol, address string,
	since *int64,
) (entity.OrderStatus, error) {
	if strings.TrimSpace(address) == "" {
		return entity.OrderStatus{}, entity.NewValidationError("address is required")
	}

	status, err := s.api.GetTxStatus(ctx, address, since)
	if err != nil {
		s.logger.Error("Failed to fetch order status", "address", address, "error", err)
		return entity.OrderStatus{}, filtered(err)
	}

	s.logger.Info("order status receive", "address", address, "status", status.Status)
	s.store.UpdateSwapOrder(depositSymbol, receiveSymbol, entity.SwapOrderFromStatus(status))
	return status, nil
}

// FetchSwapBundle implements port.ExchangeService.
func (s *exchangeServiceImpl) FetchSwapBundle(ctx context.Context, address string) (entity.SwapBundle, error) {
	resp, err := s.api.GetSwundle(ctx, address)
	if err != nil {
		s.logger.Error("Failed to fetch swap bundle", "address", address, "error", err)
		return nil, err
	}
	if resp.Result == nil || len(resp.Result.Swap) == 0 || string(resp.Result.Swap) == "null" {
		return nil, &entity.ServiceError{Category: entity.CategoryNotFound, Message: ErrNoSwapBundle.Error(), Cause: ErrNoSwapBundle}
	}

	s.store.SaveBundle(address, resp.Result.Swap)
	return resp.Result.Swap, nil
}

// SaveSwapBundle implements port.ExchangeService.
func (s *exchangeServiceImpl) SaveSwapBundle(ctx context.Context, address string, swap entity.SwapBundle) error {
	if len(swap) == 0 {
		return entity.NewValidationError("swap bundle is empty")
	}
	s.store.SaveBundle(address, swap)
	if err := s.api.PostSwundle(ctx, address, swap); err != nil {
		s.logger.Error("Failed to persist swap bundle", "address", address, "error", err)
		return err
	}
	return nil
}

// RemoveSwapBundle implements port.ExchangeService. The local copy is cleared
// before the remote one.
func (s *exchangeServiceImpl) RemoveSwapBundle(ctx context.Context, address string) error {
	s.store.ClearBundle(address)
	if err := s.api.DeleteSwundle(ctx, address); err != nil {
		s.logger.Error("Failed to delete swap bundle", "address", address, "error", err)
		return err
	}
	return nil
}

// filtered keeps the category of a ServiceError but replaces its message.
func filtered(err error) error {
	msg := entity.FilterError(err)
	if se, ok := entity.AsServiceError(err); ok {
		return &entity.ServiceError{Category: se.Category, StatusCode: se.StatusCode, Message: msg, Cause: err}
	}
	return &entity.ServiceError{Category: entity.CategoryService, Message: msg, Cause: err}
}
