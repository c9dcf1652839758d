package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"portfolio_tracker/internal/app/port"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrBatchAlreadyExecuted is returned by a second Execute on the same batch.
	ErrBatchAlreadyExecuted = errors.New("batch already executed")
	// ErrBatchClosed fails calls added after the batch was executed.
	ErrBatchClosed = errors.New("batch closed: call added after execution")
)

// RPCCaller is the subset of *rpc.Client used by the EVM client.
type RPCCaller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// BatchRequest collects JSON-RPC calls and sends them in one round trip.
type BatchRequest struct {
	caller  RPCCaller
	timeout time.Duration

	mu       sync.Mutex
	elems    []rpc.BatchElem
	executed bool
	done     chan struct{}
	err      error
}

var _ port.BatchContext = (*BatchRequest)(nil)

// NewBatchRequest creates an empty batch bound to caller. A zero timeout leaves
// the deadline to the Execute context.
func NewBatchRequest(caller RPCCaller, timeout time.Duration) *BatchRequest {
	return &BatchRequest{
		caller:  caller,
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// Add registers a call. result must be a pointer the response is decoded into.
func (b *BatchRequest) Add(method string, result any, args ...any) port.PendingCall {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.executed {
		return failedCall{err: fmt.Errorf("%s: %w", method, ErrBatchClosed)}
	}
	b.elems = append(b.elems, rpc.BatchElem{Method: method, Args: args, Result: result})
	return &batchCall{batch: b, index: len(b.elems) - 1}
}

// Len returns the number of registered calls.
func (b *BatchRequest) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.elems)
}

// Execute sends every registered call. It may be called only once.
func (b *BatchRequest) Execute(ctx context.Context) error {
	b.mu.Lock()
	if b.executed {
		b.mu.Unlock()
		return ErrBatchAlreadyExecuted
	}
	b.executed = true
	elems := b.elems
	b.mu.Unlock()

	defer close(b.done)

	if len(elems) == 0 {
		return nil
	}

	callCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	if err := b.caller.BatchCallContext(callCtx, elems); err != nil {
		b.err = fmt.Errorf("RPC batch call failed: %w", err)
		return b.err
	}
	return nil
}

// batchCall is one element of a BatchRequest.
type batchCall struct {
	batch *BatchRequest
	index int
}

func (c *batchCall) Wait(ctx context.Context) error {
	select {
	case <-c.batch.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if c.batch.err != nil {
		return c.batch.err
	}
	elem := c.batch.elems[c.index]
	if elem.Error != nil {
		return fmt.Errorf("%s failed: %w", elem.Method, elem.Error)
	}
	return nil
}

type failedCall struct {
	err error
}

func (c failedCall) Wait(context.Context) error {
	return c.err
}

// immediateCall is a call started right away, outside of any batch.
type immediateCall struct {
	done chan struct{}
	err  error
}

func startCall(ctx context.Context, caller port.BlockchainClient, result any, method string, args ...any) *immediateCall {
	c := &immediateCall{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		c.err = caller.Call(ctx, result, method, args...)
	}()
	return c
}

func (c *immediateCall) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
