package deploy

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
	"github.com/lmittmann/w3/w3types"
)

// Backend is the chain access a Deployer needs.
type Backend interface {
	From() common.Address
	Code(ctx context.Context, addr common.Address) ([]byte, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	// Send submits a transaction and waits for its receipt. A nil to
	// creates a contract.
	Send(ctx context.Context, to *common.Address, data []byte, value *big.Int) (*types.Receipt, error)
}

// W3Backend signs EIP-1559 transactions locally and sends them through w3.
type W3Backend struct {
	client *w3.Client
	key    *ecdsa.PrivateKey
	from   common.Address
	chain  *big.Int
	signer types.Signer

	// PollInterval is the receipt polling period.
	PollInterval time.Duration
	// GasMarginPercent is added on top of the node's gas estimate.
	GasMarginPercent uint64
}

var _ Backend = (*W3Backend)(nil)

// NewW3Backend returns a backend sending as key on chainID.
func NewW3Backend(client *w3.Client, key *ecdsa.PrivateKey, chainID uint64) *W3Backend {
	chain := new(big.Int).SetUint64(chainID)
	return &W3Backend{
		client:           client,
		key:              key,
		from:             crypto.PubkeyToAddress(key.PublicKey),
		chain:            chain,
		signer:           types.LatestSignerForChainID(chain),
		PollInterval:     2 * time.Second,
		GasMarginPercent: 20,
	}
}

// CheckChainID fails when the node serves a different chain than the
// backend signs for.
func (b *W3Backend) CheckChainID(ctx context.Context) error {
	var id uint64
	if err := b.client.CallCtx(ctx, eth.ChainID().Returns(&id)); err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if id != b.chain.Uint64() {
		return fmt.Errorf("node serves chain %d, expected %s", id, b.chain)
	}
	return nil
}

func (b *W3Backend) From() common.Address { return b.from }

func (b *W3Backend) Code(ctx context.Context, addr common.Address) ([]byte, error) {
	var code []byte
	if err := b.client.CallCtx(ctx, eth.Code(addr, nil).Returns(&code)); err != nil {
		return nil, fmt.Errorf("get code %s: %w", addr, err)
	}
	return code, nil
}

func (b *W3Backend) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var out []byte
	msg := &w3types.Message{From: b.from, To: &to, Input: data}
	if err := b.client.CallCtx(ctx, eth.Call(msg, nil, nil).Returns(&out)); err != nil {
		return nil, fmt.Errorf("call %s: %w", to, err)
	}
	return out, nil
}

func (b *W3Backend) Send(ctx context.Context, to *common.Address, data []byte, value *big.Int) (*types.Receipt, error) {
	if value == nil {
		value = new(big.Int)
	}
	var (
		nonce  uint64
		tip    *big.Int
		header *types.Header
		gas    uint64
	)
	msg := &w3types.Message{From: b.from, To: to, Input: data, Value: value}
	if err := b.client.CallCtx(ctx,
		eth.Nonce(b.from, nil).Returns(&nonce),
		eth.GasTipCap().Returns(&tip),
		eth.HeaderByNumber(nil).Returns(&header),
		eth.EstimateGas(msg, nil).Returns(&gas),
	); err != nil {
		return nil, fmt.Errorf("prepare tx: %w", err)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(header.BaseFee, big.NewInt(2)))
	gas += gas * b.GasMarginPercent / 100

	signed, err := types.SignTx(types.NewTx(&types.DynamicFeeTx{
		ChainID:   b.chain,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        to,
		Value:     value,
		Data:      data,
	}), b.signer, b.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	var hash common.Hash
	if err := b.client.CallCtx(ctx, eth.SendTx(signed).Returns(&hash)); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}
	return WaitForReceipt(ctx, b.client, hash, b.PollInterval)
}

// WaitForReceipt polls for the receipt of hash until it is mined or ctx is
// done. Lookup errors are retried; nodes report unknown hashes as errors.
func WaitForReceipt(ctx context.Context, client *w3.Client, hash common.Hash, every time.Duration) (*types.Receipt, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		var receipt *types.Receipt
		err := client.CallCtx(ctx, eth.TxReceipt(hash).Returns(&receipt))
		if err == nil && receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
