package port

import (
	"context"

	"portfolio_tracker/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// PendingCall is a node call whose result becomes available once the call (or
// the batch it belongs to) completes.
type PendingCall interface {
	Wait(ctx context.Context) error
}

// BatchContext collects node calls so they can be sent in a single round trip.
// Execute may be called only once.
type BatchContext interface {
	Add(method string, result any, args ...any) PendingCall
	Execute(ctx context.Context) error
	Len() int
}

// BatchFactory creates a fresh BatchContext per aggregation cycle.
type BatchFactory interface {
	NewBatch() BatchContext
}

// BalanceFuture resolves to a base-unit balance.
type BalanceFuture func(ctx context.Context) (decimal.Decimal, error)

// BalanceBackend discovers the balance of one asset for a wallet.
// Implementations exist for each entity.BackendKind.
type BalanceBackend interface {
	Kind() entity.BackendKind
	// RequestBalance registers the lookup with batch when batch is non-nil,
	// otherwise starts it immediately.
	RequestBalance(ctx context.Context, asset entity.Asset, walletAddress string, batch BatchContext) BalanceFuture
}

// BlockchainClient defines the interface for interacting with a blockchain node.
type BlockchainClient interface {
	BatchFactory
	// Call performs a single JSON-RPC call immediately.
	Call(ctx context.Context, result any, method string, args ...any) error
	// Definition returns the network definition associated with this client.
	Definition() entity.NetworkDefinition
}

// NetworkDefinitionProvider defines the interface for providing network definitions.
type NetworkDefinitionProvider interface {
	// GetAllNetworkDefinitions returns all known network definitions as a slice.
	GetAllNetworkDefinitions() []entity.NetworkDefinition

	// GetNetworkDefinitionByName returns a specific network definition by its identifier.
	// Возвращает определение и true, если найдено, иначе false.
	GetNetworkDefinitionByName(identifier string) (entity.NetworkDefinition, bool)

	// GetNetworkDefinitionBySymbol returns the network whose native asset is symbol.
	GetNetworkDefinitionBySymbol(symbol string) (entity.NetworkDefinition, bool)

	// GetTokenHostNetwork returns the network answering token balance calls.
	GetTokenHostNetwork() (entity.NetworkDefinition, bool)
}

// BlockchainClientProvider defines the interface for providing blockchain clients.
type BlockchainClientProvider interface {
	GetClient(networkDefinition entity.NetworkDefinition) (BlockchainClient, error)
}
