package store

import (
	"strings"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"

	"github.com/patrickmn/go-cache"
)

const bundleKeyPrefix = "swundle:"

// SwapOrderStore keeps swap-order records and pending bundles in memory.
// Records never expire.
type SwapOrderStore struct {
	items *cache.Cache
}

var _ port.SwapOrderStore = (*SwapOrderStore)(nil)

// NewSwapOrderStore creates an empty store.
func NewSwapOrderStore() *SwapOrderStore {
	return &SwapOrderStore{items: cache.New(cache.NoExpiration, 0)}
}

// UpdateSwapOrder merges order into the record of the pair. Empty fields keep
// their previous value.
func (s *SwapOrderStore) UpdateSwapOrder(depositSymbol, receiveSymbol string, order entity.SwapOrder) {
	key := entity.SwapPairKey(depositSymbol, receiveSymbol)
	if prev, ok := s.SwapOrder(depositSymbol, receiveSymbol); ok {
		if order.Status == "" {
			order.Status = prev.Status
		}
		if order.Transaction == "" {
			order.Transaction = prev.Transaction
		}
		if order.OutgoingCoin == "" {
			order.OutgoingCoin = prev.OutgoingCoin
		}
		if order.Error == "" {
			order.Error = prev.Error
		}
	}
	s.items.Set(key, order, cache.NoExpiration)
}

// SwapOrder returns the record of the pair.
func (s *SwapOrderStore) SwapOrder(depositSymbol, receiveSymbol string) (entity.SwapOrder, bool) {
	v, ok := s.items.Get(entity.SwapPairKey(depositSymbol, receiveSymbol))
	if !ok {
		return entity.SwapOrder{}, false
	}
	order, ok := v.(entity.SwapOrder)
	return order, ok
}

// SaveBundle stores the pending bundle of address.
func (s *SwapOrderStore) SaveBundle(address string, swap entity.SwapBundle) {
	cp := append(entity.SwapBundle(nil), swap...)
	s.items.Set(bundleKey(address), cp, cache.NoExpiration)
}

// Bundle returns the pending bundle of address.
func (s *SwapOrderStore) Bundle(address string) (entity.SwapBundle, bool) {
	v, ok := s.items.Get(bundleKey(address))
	if !ok {
		return nil, false
	}
	swap, ok := v.(entity.SwapBundle)
	return swap, ok
}

// ClearBundle removes the pending bundle of address.
func (s *SwapOrderStore) ClearBundle(address string) {
	s.items.Delete(bundleKey(address))
}

func bundleKey(address string) string {
	return bundleKeyPrefix + strings.ToLower(strings.TrimSpace(address))
}
