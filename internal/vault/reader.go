package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
)

var (
	funcTotalBalance    = w3.MustNewFunc("totalBalance()", "uint256")
	funcPricePerShare   = w3.MustNewFunc("pricePerShare()", "uint256")
	funcOptionAuctionID = w3.MustNewFunc("optionAuctionID()", "uint256")
	funcBalance         = w3.MustNewFunc("balance(address)", "uint256")
	funcVaultState      = w3.MustNewFunc("vaultState()",
		"uint16 round,uint104 lockedAmount,uint104 lastLockedAmount,uint128 totalPending,uint128 queuedWithdrawShares")
	funcVaultParams = w3.MustNewFunc("vaultParams()",
		"bool isPut,uint8 decimals,address asset,address underlying,uint56 minimumSupply,uint104 cap")

	// FuncClaimAuctionOtokens is sent by keepers after an auction settles.
	FuncClaimAuctionOtokens = w3.MustNewFunc("claimAuctionOtokens()", "")
)

// State mirrors the vault's vaultState() getter.
type State struct {
	Round                uint16
	LockedAmount         *big.Int
	LastLockedAmount     *big.Int
	TotalPending         *big.Int
	QueuedWithdrawShares *big.Int
}

// Params mirrors the vault's vaultParams() getter.
type Params struct {
	IsPut         bool
	Decimals      uint8
	Asset         common.Address
	Underlying    common.Address
	MinimumSupply *big.Int
	Cap           *big.Int
}

// Reader reads Theta Vault state over JSON-RPC.
type Reader struct {
	client  *w3.Client
	address common.Address
}

// NewReader returns a Reader for the vault at address.
func NewReader(client *w3.Client, address common.Address) *Reader {
	return &Reader{client: client, address: address}
}

// Address returns the vault address.
func (r *Reader) Address() common.Address { return r.address }

// State returns vaultState().
func (r *Reader) State(ctx context.Context) (State, error) {
	var s State
	err := r.client.CallCtx(ctx, eth.CallFunc(r.address, funcVaultState).
		Returns(&s.Round, &s.LockedAmount, &s.LastLockedAmount, &s.TotalPending, &s.QueuedWithdrawShares))
	if err != nil {
		return State{}, fmt.Errorf("read vault state: %w", err)
	}
	return s, nil
}

// Params returns vaultParams().
func (r *Reader) Params(ctx context.Context) (Params, error) {
	var p Params
	err := r.client.CallCtx(ctx, eth.CallFunc(r.address, funcVaultParams).
		Returns(&p.IsPut, &p.Decimals, &p.Asset, &p.Underlying, &p.MinimumSupply, &p.Cap))
	if err != nil {
		return Params{}, fmt.Errorf("read vault params: %w", err)
	}
	return p, nil
}

// OptionAuctionID returns the id of the vault's current option auction.
func (r *Reader) OptionAuctionID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	if err := r.client.CallCtx(ctx, eth.CallFunc(r.address, funcOptionAuctionID).Returns(&id)); err != nil {
		return nil, fmt.Errorf("read option auction id: %w", err)
	}
	return id, nil
}

// Balance returns the asset balance credited to account.
func (r *Reader) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	var bal *big.Int
	if err := r.client.CallCtx(ctx, eth.CallFunc(r.address, funcBalance, account).Returns(&bal)); err != nil {
		return nil, fmt.Errorf("read vault balance: %w", err)
	}
	return bal, nil
}

// LockedBalanceForRollover reads the vault in one batch and returns the
// balance that will be locked at rollover and the queued withdraw amount.
func (r *Reader) LockedBalanceForRollover(ctx context.Context) (locked, queued *big.Int, err error) {
	var (
		total, pps *big.Int
		s          State
		p          Params
	)
	err = r.client.CallCtx(ctx,
		eth.CallFunc(r.address, funcTotalBalance).Returns(&total),
		eth.CallFunc(r.address, funcPricePerShare).Returns(&pps),
		eth.CallFunc(r.address, funcVaultState).
			Returns(&s.Round, &s.LockedAmount, &s.LastLockedAmount, &s.TotalPending, &s.QueuedWithdrawShares),
		eth.CallFunc(r.address, funcVaultParams).
			Returns(&p.IsPut, &p.Decimals, &p.Asset, &p.Underlying, &p.MinimumSupply, &p.Cap),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("read vault: %w", err)
	}
	return LockedBalanceForRollover(total, pps, s.QueuedWithdrawShares, p.Decimals)
}
