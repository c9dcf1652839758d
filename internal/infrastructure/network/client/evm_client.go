package client

import (
	"context"
	"fmt"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"

	"github.com/ethereum/go-ethereum/ethclient"
)

// EVMClient implements the port.BlockchainClient interface for EVM-compatible chains.
type EVMClient struct {
	rpc            RPCCaller
	closeFn        func()
	netDef         entity.NetworkDefinition
	rpcCallTimeout time.Duration
}

var _ port.BlockchainClient = (*EVMClient)(nil)

// NewEVMClient dials the primary RPC endpoint of netDef, then each fallback in
// order, and returns a client for the first endpoint that answers.
func NewEVMClient(netDef entity.NetworkDefinition, connectionTimeout, rpcCallTimeout time.Duration) (*EVMClient, error) {
	rpcURLs := append([]string{netDef.PrimaryRPCURL}, netDef.FallbackRPCURLs...)
	var lastErr error

	for _, rpcURL := range rpcURLs {
		if rpcURL == "" {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		client, err := ethclient.DialContext(ctx, rpcURL)
		cancel()

		if err == nil {
			return &EVMClient{
				rpc:            client.Client(),
				closeFn:        client.Close,
				netDef:         netDef,
				rpcCallTimeout: rpcCallTimeout,
			}, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no RPC endpoints configured")
	}
	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netDef.Name, lastErr)
}

// NewEVMClientWithRPC wraps an already connected RPC client.
func NewEVMClientWithRPC(netDef entity.NetworkDefinition, caller RPCCaller, rpcCallTimeout time.Duration) *EVMClient {
	return &EVMClient{rpc: caller, netDef: netDef, rpcCallTimeout: rpcCallTimeout}
}

// Call performs a single JSON-RPC call.
func (c *EVMClient) Call(ctx context.Context, result any, method string, args ...any) error {
	if c.rpcCallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.rpcCallTimeout)
		defer cancel()
	}
	if err := c.rpc.CallContext(ctx, result, method, args...); err != nil {
		return fmt.Errorf("%s on %s failed: %w", method, c.netDef.Identifier, err)
	}
	return nil
}

// NewBatch creates a batch sent to this client's node.
func (c *EVMClient) NewBatch() port.BatchContext {
	return NewBatchRequest(c.rpc, c.rpcCallTimeout)
}

// Definition returns the network definition for this client.
func (c *EVMClient) Definition() entity.NetworkDefinition {
	return c.netDef
}

// Close releases the underlying connection.
func (c *EVMClient) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}
