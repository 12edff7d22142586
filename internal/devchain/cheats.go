package devchain

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3/module/eth"
	"go.uber.org/zap"
)

type forking struct {
	JSONRPCURL  string `json:"jsonRpcUrl"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
}

type resetParams struct {
	Forking *forking `json:"forking,omitempty"`
}

// Reset restarts the node forking forkURL at block. An empty forkURL resets
// to a fresh local chain; block 0 forks the latest block.
func (c *Client) Reset(ctx context.Context, forkURL string, block uint64) error {
	var p resetParams
	if forkURL != "" {
		p.Forking = &forking{JSONRPCURL: forkURL, BlockNumber: block}
	}
	var ok bool
	if err := c.rpc.CallContext(ctx, &ok, "hardhat_reset", p); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	c.log.Debug("reset", zap.Uint64("block", block))
	return nil
}

// Impersonate lets the node sign for addr.
func (c *Client) Impersonate(ctx context.Context, addr common.Address) error {
	var ok bool
	if err := c.rpc.CallContext(ctx, &ok, "hardhat_impersonateAccount", addr); err != nil {
		return fmt.Errorf("impersonate %s: %w", addr, err)
	}
	return nil
}

// StopImpersonating undoes Impersonate.
func (c *Client) StopImpersonating(ctx context.Context, addr common.Address) error {
	var ok bool
	if err := c.rpc.CallContext(ctx, &ok, "hardhat_stopImpersonatingAccount", addr); err != nil {
		return fmt.Errorf("stop impersonating %s: %w", addr, err)
	}
	return nil
}

// AsImpersonated runs fn while addr is impersonated.
func (c *Client) AsImpersonated(ctx context.Context, addr common.Address, fn func() error) error {
	if err := c.Impersonate(ctx, addr); err != nil {
		return err
	}
	fnErr := fn()
	if err := c.StopImpersonating(ctx, addr); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}

// SetBalance sets the ether balance of addr, including contracts without a
// receive function.
func (c *Client) SetBalance(ctx context.Context, addr common.Address, wei *big.Int) error {
	var ok bool
	if err := c.rpc.CallContext(ctx, &ok, "hardhat_setBalance", addr, hexutil.EncodeBig(wei)); err != nil {
		return fmt.Errorf("set balance %s: %w", addr, err)
	}
	return nil
}

// EtherBalance returns the ether balance of addr at the latest block.
func (c *Client) EtherBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	var bal *big.Int
	if err := c.w3.CallCtx(ctx, eth.Balance(addr, nil).Returns(&bal)); err != nil {
		return nil, fmt.Errorf("balance %s: %w", addr, err)
	}
	return bal, nil
}

// AddBalance credits addr with wei on top of what it already holds.
func (c *Client) AddBalance(ctx context.Context, addr common.Address, wei *big.Int) error {
	bal, err := c.EtherBalance(ctx, addr)
	if err != nil {
		return err
	}
	return c.SetBalance(ctx, addr, new(big.Int).Add(bal, wei))
}

// IncreaseTime moves the clock forward by seconds and mines a block.
func (c *Client) IncreaseTime(ctx context.Context, seconds uint64) error {
	var out any
	if err := c.rpc.CallContext(ctx, &out, "evm_increaseTime", seconds); err != nil {
		return fmt.Errorf("increase time: %w", err)
	}
	return c.Mine(ctx)
}

// SetNextBlockTimestamp fixes the timestamp of the next mined block.
func (c *Client) SetNextBlockTimestamp(ctx context.Context, ts uint64) error {
	var out any
	if err := c.rpc.CallContext(ctx, &out, "evm_setNextBlockTimestamp", ts); err != nil {
		return fmt.Errorf("set next block timestamp %d: %w", ts, err)
	}
	return nil
}

// Mine mines one block.
func (c *Client) Mine(ctx context.Context) error {
	var out any
	if err := c.rpc.CallContext(ctx, &out, "evm_mine"); err != nil {
		return fmt.Errorf("mine: %w", err)
	}
	return nil
}

// IncreaseTo mines a block with timestamp ts.
func (c *Client) IncreaseTo(ctx context.Context, ts uint64) error {
	if err := c.SetNextBlockTimestamp(ctx, ts); err != nil {
		return err
	}
	return c.Mine(ctx)
}

// LatestTimestamp returns the timestamp of the latest block.
func (c *Client) LatestTimestamp(ctx context.Context) (uint64, error) {
	var header *types.Header
	if err := c.w3.CallCtx(ctx, eth.HeaderByNumber(nil).Returns(&header)); err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	return header.Time, nil
}

// Snapshot records the chain state and returns its id.
func (c *Client) Snapshot(ctx context.Context) (string, error) {
	var id string
	if err := c.rpc.CallContext(ctx, &id, "evm_snapshot"); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return id, nil
}

// Revert restores the state recorded by Snapshot id. Hardhat discards the
// snapshot and every later one.
func (c *Client) Revert(ctx context.Context, id string) error {
	var ok bool
	if err := c.rpc.CallContext(ctx, &ok, "evm_revert", id); err != nil {
		return fmt.Errorf("revert %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("revert %s: unknown snapshot", id)
	}
	return nil
}

// RevertToSnapshotAfterEach snapshots the chain now and reverts to it when
// t finishes. Call it at the start of every subtest that mutates state.
func (c *Client) RevertToSnapshotAfterEach(t testing.TB) {
	t.Helper()
	ctx := context.Background()
	id, err := c.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Revert(ctx, id); err != nil {
			t.Errorf("revert: %v", err)
		}
	})
}
