package client

import (
	"fmt"
	"sync"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/infrastructure/configloader"
)

const defaultProviderConnectionTimeout = 10 * time.Second

// dialFunc creates a client for a network definition.
type dialFunc func(netDef entity.NetworkDefinition, connectionTimeout, rpcCallTimeout time.Duration) (port.BlockchainClient, error)

// EVMClientProvider implements the port.BlockchainClientProvider interface.
type EVMClientProvider struct {
	clients           map[string]port.BlockchainClient
	mu                sync.Mutex
	loggerInfo        func(msg string, args ...any)
	loggerError       func(msg string, args ...any)
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
	dial              dialFunc
}

// NewEVMClientProvider creates a new EVMClientProvider.
func NewEVMClientProvider(
	cfg *configloader.Config,
	loggerInfo func(msg string, args ...any),
	loggerError func(msg string, args ...any),
) *EVMClientProvider {
	connectionTimeout := defaultProviderConnectionTimeout
	if cfg.Performance.ConnectionTimeoutSeconds > 0 {
		connectionTimeout = time.Duration(cfg.Performance.ConnectionTimeoutSeconds) * time.Second
	}
	return &EVMClientProvider{
		clients:           make(map[string]port.BlockchainClient),
		loggerInfo:        loggerInfo,
		loggerError:       loggerError,
		connectionTimeout: connectionTimeout,
		rpcCallTimeout:    time.Duration(cfg.Performance.RPCCallTimeoutSeconds) * time.Second,
		dial: func(netDef entity.NetworkDefinition, connectionTimeout, rpcCallTimeout time.Duration) (port.BlockchainClient, error) {
			return NewEVMClient(netDef, connectionTimeout, rpcCallTimeout)
		},
	}
}

// GetClient retrieves a blockchain client for the given network definition.
// It caches clients to avoid reconnecting repeatedly.
func (p *EVMClientProvider) GetClient(netDef entity.NetworkDefinition) (port.BlockchainClient, error) {
	if netDef.BalanceBackend == entity.UnsupportedBackend {
		return nil, fmt.Errorf("network %s has no node backend", netDef.Identifier)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	clientKey := netDef.Identifier
	if client, exists := p.clients[clientKey]; exists {
		return client, nil
	}

	p.loggerInfo("Creating new EVM client", "network", netDef.Name, "rpc_primary", netDef.PrimaryRPCURL)
	newClient, err := p.dial(netDef, p.connectionTimeout, p.rpcCallTimeout)
	if err != nil {
		p.loggerError("Failed to create EVM client", "network", netDef.Name, "error", err)
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", netDef.Name, err)
	}

	p.clients[clientKey] = newClient
	p.loggerInfo("Successfully created and cached new EVM client", "network", netDef.Name)
	return newClient, nil
}

// Close closes every cached client.
func (p *EVMClientProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, c := range p.clients {
		if closer, ok := c.(interface{ Close() }); ok {
			closer.Close()
		}
		delete(p.clients, key)
	}
}
