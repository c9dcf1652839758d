package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// ERC20 ABI minimal part for balanceOf
const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
	erc20MethodID   []byte
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
		balanceOfMethod, ok := parsedERC20ABI.Methods["balanceOf"]
		if !ok {
			panic("balanceOf method not found in parsed ERC20 ABI")
		}
		erc20MethodID = balanceOfMethod.ID
	})
}

// BalanceOfCallData returns the eth_call input for balanceOf(owner).
func BalanceOfCallData(owner string) []byte {
	initParsedERC20ABI()
	padded := common.LeftPadBytes(common.HexToAddress(owner).Bytes(), 32)
	data := make([]byte, 0, len(erc20MethodID)+len(padded))
	data = append(data, erc20MethodID...)
	return append(data, padded...)
}

// request registers the call with batch, or starts it on client when batch is nil.
func request(ctx context.Context, client port.BlockchainClient, batch port.BatchContext, result any, method string, args ...any) port.PendingCall {
	if batch != nil {
		return batch.Add(method, result, args...)
	}
	return startCall(ctx, client, result, method, args...)
}

// NativeBalanceBackend reads balances with eth_getBalance.
type NativeBalanceBackend struct {
	client port.BlockchainClient
}

// NewNativeBalanceBackend creates a native backend bound to client.
func NewNativeBalanceBackend(client port.BlockchainClient) *NativeBalanceBackend {
	return &NativeBalanceBackend{client: client}
}

// Kind implements port.BalanceBackend.
func (b *NativeBalanceBackend) Kind() entity.BackendKind { return entity.NativeBackend }

// RequestBalance implements port.BalanceBackend.
func (b *NativeBalanceBackend) RequestBalance(ctx context.Context, asset entity.Asset, walletAddress string, batch port.BatchContext) port.BalanceFuture {
	result := new(hexutil.Big)
	call := request(ctx, b.client, batch, result, "eth_getBalance", common.HexToAddress(walletAddress), "latest")

	return func(ctx context.Context) (decimal.Decimal, error) {
		if err := call.Wait(ctx); err != nil {
			return decimal.Zero, fmt.Errorf("failed to fetch %s balance for %s: %w", asset.Symbol, walletAddress, err)
		}
		return decimal.NewFromBigInt(result.ToInt(), 0), nil
	}
}

// TokenBalanceBackend calls balanceOf on the asset's contract.
type TokenBalanceBackend struct {
	client port.BlockchainClient
}

// NewTokenBalanceBackend creates a token backend bound to the token host client.
func NewTokenBalanceBackend(client port.BlockchainClient) *TokenBalanceBackend {
	initParsedERC20ABI()
	return &TokenBalanceBackend{client: client}
}

// Kind implements port.BalanceBackend.
func (b *TokenBalanceBackend) Kind() entity.BackendKind { return entity.TokenBackend }

// RequestBalance implements port.BalanceBackend.
func (b *TokenBalanceBackend) RequestBalance(ctx context.Context, asset entity.Asset, walletAddress string, batch port.BatchContext) port.BalanceFuture {
	callArgs := map[string]any{
		"to":   common.HexToAddress(asset.ContractAddress),
		"data": hexutil.Bytes(BalanceOfCallData(walletAddress)),
	}
	result := new(hexutil.Bytes)
	call := request(ctx, b.client, batch, result, "eth_call", callArgs, "latest")

	return func(ctx context.Context) (decimal.Decimal, error) {
		if err := call.Wait(ctx); err != nil {
			return decimal.Zero, fmt.Errorf("failed to fetch %s (%s) balance for %s: %w",
				asset.Symbol, asset.ContractAddress, walletAddress, err)
		}
		balance, err := unpackBalanceOf(*result)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to decode %s balance: %w", asset.Symbol, err)
		}
		return decimal.NewFromBigInt(balance, 0), nil
	}
}

func unpackBalanceOf(raw hexutil.Bytes) (*big.Int, error) {
	initParsedERC20ABI()
	if len(raw) == 0 {
		return big.NewInt(0), nil
	}
	unpacked, err := parsedERC20ABI.Unpack("balanceOf", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result %s: %w", hexutil.Encode(raw), err)
	}
	if len(unpacked) == 0 {
		return nil, fmt.Errorf("balanceOf unpack returned no data")
	}
	balance, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", unpacked[0])
	}
	return balance, nil
}

// UnsupportedBalanceBackend stands in for chains without balance discovery.
// It always yields zero.
type UnsupportedBalanceBackend struct{}

// NewUnsupportedBalanceBackend creates the zero backend.
func NewUnsupportedBalanceBackend() *UnsupportedBalanceBackend {
	return &UnsupportedBalanceBackend{}
}

// Kind implements port.BalanceBackend.
func (UnsupportedBalanceBackend) Kind() entity.BackendKind { return entity.UnsupportedBackend }

// RequestBalance implements port.BalanceBackend.
func (UnsupportedBalanceBackend) RequestBalance(context.Context, entity.Asset, string, port.BatchContext) port.BalanceFuture {
	return func(context.Context) (decimal.Decimal, error) {
		return decimal.Zero, nil
	}
}

// unbatchedBackend sends every lookup on its own. It wraps backends whose node
// differs from the one the cycle batch is bound to.
type unbatchedBackend struct {
	port.BalanceBackend
}

// Unbatched returns a backend that ignores the cycle batch.
func Unbatched(backend port.BalanceBackend) port.BalanceBackend {
	return unbatchedBackend{BalanceBackend: backend}
}

// RequestBalance implements port.BalanceBackend.
func (b unbatchedBackend) RequestBalance(ctx context.Context, asset entity.Asset, walletAddress string, _ port.BatchContext) port.BalanceFuture {
	return b.BalanceBackend.RequestBalance(ctx, asset, walletAddress, nil)
}
