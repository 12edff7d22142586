package devchain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/chain"
	"github.com/3jane-protocol/3jane-contracts/internal/deploy"
	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

// Client drives a Hardhat development node, usually one forking mainnet.
type Client struct {
	rpc     *rpc.Client
	w3      *w3.Client
	book    *chain.Book
	chainID domain.ChainID
	log     *zap.Logger

	// PollInterval is the receipt polling period.
	PollInterval time.Duration
}

// New wraps an RPC connection to a development node serving chainID.
func New(client *rpc.Client, book *chain.Book, chainID domain.ChainID, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		rpc:          client,
		w3:           w3.NewClient(client),
		book:         book,
		chainID:      chainID,
		log:          log,
		PollInterval: 100 * time.Millisecond,
	}
}

// Dial connects to the node at url.
func Dial(ctx context.Context, url string, book *chain.Book, chainID domain.ChainID, log *zap.Logger) (*Client, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return New(client, book, chainID, log), nil
}

// Close closes the connection.
func (c *Client) Close() { c.rpc.Close() }

// W3 returns a w3 client over the same connection.
func (c *Client) W3() *w3.Client { return c.w3 }

// Book returns the address book the helpers resolve tokens with.
func (c *Client) Book() *chain.Book { return c.book }

// ChainID returns the chain the node forks.
func (c *Client) ChainID() domain.ChainID { return c.chainID }

type sendArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
}

// SendAs sends a transaction from an unlocked or impersonated account and
// waits for the receipt. Reverted transactions return deploy.ErrReverted.
func (c *Client) SendAs(ctx context.Context, from common.Address, to *common.Address, data []byte, value *big.Int) (*types.Receipt, error) {
	args := sendArgs{From: from, To: to, Data: data}
	if value != nil {
		args.Value = (*hexutil.Big)(value)
	}
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return nil, fmt.Errorf("send as %s: %w", from, err)
	}
	rcpt, err := deploy.WaitForReceipt(ctx, c.w3, hash, c.PollInterval)
	if err != nil {
		return nil, err
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return rcpt, fmt.Errorf("%w: tx %s from %s", deploy.ErrReverted, hash, from)
	}
	return rcpt, nil
}

// Backend returns a deploy.Backend sending as from through the node.
func (c *Client) Backend(from common.Address) deploy.Backend {
	return &backend{c: c, from: from}
}

type backend struct {
	c    *Client
	from common.Address
}

func (b *backend) From() common.Address { return b.from }

func (b *backend) Code(ctx context.Context, addr common.Address) ([]byte, error) {
	var code hexutil.Bytes
	if err := b.c.rpc.CallContext(ctx, &code, "eth_getCode", addr, "latest"); err != nil {
		return nil, err
	}
	return code, nil
}

func (b *backend) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var out hexutil.Bytes
	args := sendArgs{From: b.from, To: &to, Data: data}
	if err := b.c.rpc.CallContext(ctx, &out, "eth_call", args, "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *backend) Send(ctx context.Context, to *common.Address, data []byte, value *big.Int) (*types.Receipt, error) {
	rcpt, err := b.c.SendAs(ctx, b.from, to, data, value)
	if rcpt != nil && err != nil {
		// deploy inspects the status itself
		return rcpt, nil
	}
	return rcpt, err
}
