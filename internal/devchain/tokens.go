package devchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/crypto"
)

// WalletKey is the fixed key GenerateWallet hands out. Its address has no
// history on mainnet, so permit nonces start at zero.
const WalletKey = "0ce495bd7bab5341ae5a7ac195173fba1aa56f6561e35e1fec6176e2519ab8da"

var (
	funcBalanceOf  = w3.MustNewFunc("balanceOf(address)", "uint256")
	funcAllowance  = w3.MustNewFunc("allowance(address,address)", "uint256")
	funcTransfer   = w3.MustNewFunc("transfer(address,uint256)", "bool")
	funcApprove    = w3.MustNewFunc("approve(address,uint256)", "bool")
	funcMint       = w3.MustNewFunc("mint(address,uint256)", "")
	funcBridgeMint = w3.MustNewFunc("mint(address,uint256,address,uint256,bytes32)", "")

	ownerFunding  = new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))
	walletFunding = new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))
)

// BalanceOf returns the token balance of holder.
func (c *Client) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	var bal *big.Int
	if err := c.w3.CallCtx(ctx, eth.CallFunc(token, funcBalanceOf, holder).Returns(&bal)); err != nil {
		return nil, fmt.Errorf("balanceOf %s on %s: %w", holder, token, err)
	}
	return bal, nil
}

// Allowance returns how much spender may pull from owner.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	var out *big.Int
	if err := c.w3.CallCtx(ctx, eth.CallFunc(token, funcAllowance, owner, spender).Returns(&out)); err != nil {
		return nil, fmt.Errorf("allowance on %s: %w", token, err)
	}
	return out, nil
}

// Transfer sends amount of token from an unlocked or impersonated holder.
func (c *Client) Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error {
	data, err := funcTransfer.EncodeArgs(to, amount)
	if err != nil {
		return err
	}
	_, err = c.SendAs(ctx, from, &token, data, nil)
	return err
}

// Approve lets spender pull amount of token from approver, impersonating
// approver for the call.
func (c *Client) Approve(ctx context.Context, token, approver, spender common.Address, amount *big.Int) error {
	data, err := funcApprove.EncodeArgs(spender, amount)
	if err != nil {
		return err
	}
	return c.AsImpersonated(ctx, approver, func() error {
		_, err := c.SendAs(ctx, approver, &token, data, nil)
		return err
	})
}

// MintToken credits recipient with amount of token on behalf of owner, then
// approves spender to pull it. Depending on the token, owner transfers from
// its own balance, mints through the Avalanche bridge, or mints directly.
// A zero spender skips the approval.
func (c *Client) MintToken(ctx context.Context, token, owner, recipient, spender common.Address, amount *big.Int) error {
	if err := c.AddBalance(ctx, owner, ownerFunding); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	switch {
	case c.book.IsBridgeToken(c.chainID, token):
		var txid [32]byte
		copy(txid[:], "Hello World!")
		data, err = funcBridgeMint.EncodeArgs(recipient, amount, recipient, big.NewInt(0), txid)
	case c.book.IsTransferFunded(c.chainID, token):
		data, err = funcTransfer.EncodeArgs(recipient, amount)
	default:
		data, err = funcMint.EncodeArgs(recipient, amount)
	}
	if err != nil {
		return err
	}
	err = c.AsImpersonated(ctx, owner, func() error {
		_, err := c.SendAs(ctx, owner, &token, data, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("mint %s: %w", token, err)
	}
	c.log.Debug("minted", zap.Stringer("token", token), zap.Stringer("to", recipient), zap.Stringer("amount", amount))
	if spender == (common.Address{}) {
		return nil
	}
	return c.Approve(ctx, token, recipient, spender, amount)
}

// GenerateWallet returns the WalletKey account funded by funder with amount
// of token and 10 ETH. The account stays impersonated so tests can send as
// it without signing.
func (c *Client) GenerateWallet(ctx context.Context, token common.Address, amount *big.Int, funder common.Address) (*ecdsa.PrivateKey, error) {
	key := crypto.MustParseKey(WalletKey)
	addr := crypto.Address(key)
	if err := c.Impersonate(ctx, addr); err != nil {
		return nil, err
	}
	if err := c.Transfer(ctx, token, funder, addr, amount); err != nil {
		return nil, fmt.Errorf("fund wallet: %w", err)
	}
	if _, err := c.SendAs(ctx, funder, &addr, nil, walletFunding); err != nil {
		return nil, fmt.Errorf("fund wallet: %w", err)
	}
	return key, nil
}
