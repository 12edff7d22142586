package devchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/chain"
)

var (
	funcSetAssetPricer      = w3.MustNewFunc("setAssetPricer(address,address)", "")
	funcSetExpiryPrice      = w3.MustNewFunc("setExpiryPrice(address,uint256,uint256)", "")
	funcWhitelistCollateral = w3.MustNewFunc("whitelistCollateral(address)", "")
	funcWhitelistProduct    = w3.MustNewFunc("whitelistProduct(address,address,address,bool)", "")

	pricerFunding         = new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))
	whitelistOwnerFunding = new(big.Int).Mul(big.NewInt(5), big.NewInt(1e18))
)

func oracleKeys(p chain.OptionProtocol) (oracle, owner string) {
	if p == chain.TD {
		return "TD_ORACLE", "TD_ORACLE_OWNER"
	}
	return "GAMMA_ORACLE", "ORACLE_OWNER"
}

func whitelistKeys(p chain.OptionProtocol) (whitelist, owner string) {
	if p == chain.TD {
		return "TD_WHITELIST", "TD_WHITELIST_OWNER"
	}
	return "GAMMA_WHITELIST", "GAMMA_WHITELIST_OWNER"
}

func (c *Client) lookupPair(a, b string) (common.Address, common.Address, error) {
	x, err := c.book.Lookup(a, c.chainID)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	y, err := c.book.Lookup(b, c.chainID)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return x, y, nil
}

// sendImpersonated adds funding to from and sends each call to target as it.
func (c *Client) sendImpersonated(ctx context.Context, from, target common.Address, funding *big.Int, calls ...[]byte) error {
	if err := c.AddBalance(ctx, from, funding); err != nil {
		return err
	}
	return c.AsImpersonated(ctx, from, func() error {
		for _, data := range calls {
			if _, err := c.SendAs(ctx, from, &target, data, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetAssetPricer points the protocol oracle at pricer for asset, acting as
// the oracle owner.
func (c *Client) SetAssetPricer(ctx context.Context, asset, pricer common.Address, p chain.OptionProtocol) error {
	oracle, owner, err := c.lookupPair(oracleKeys(p))
	if err != nil {
		return err
	}
	data, err := funcSetAssetPricer.EncodeArgs(asset, pricer)
	if err != nil {
		return err
	}
	if err := c.sendImpersonated(ctx, owner, oracle, pricerFunding, data); err != nil {
		return fmt.Errorf("set asset pricer: %w", err)
	}
	return nil
}

// WhitelistProduct whitelists collateral and the (underlying, strike,
// collateral, isPut) product, acting as the whitelist owner.
func (c *Client) WhitelistProduct(ctx context.Context, underlying, strike, collateral common.Address, isPut bool, p chain.OptionProtocol) error {
	whitelist, owner, err := c.lookupPair(whitelistKeys(p))
	if err != nil {
		return err
	}
	coll, err := funcWhitelistCollateral.EncodeArgs(collateral)
	if err != nil {
		return err
	}
	product, err := funcWhitelistProduct.EncodeArgs(underlying, strike, collateral, isPut)
	if err != nil {
		return err
	}
	if err := c.sendImpersonated(ctx, owner, whitelist, whitelistOwnerFunding, coll, product); err != nil {
		return fmt.Errorf("whitelist product: %w", err)
	}
	return nil
}

// SetOracleExpiryPrice settles asset at price for expiry. It moves past the
// locking period, submits the price as pricer, then moves past the dispute
// period so the price is final.
func (c *Client) SetOracleExpiryPrice(ctx context.Context, asset, oracle, pricer common.Address, expiry uint64, price *big.Int) error {
	if err := c.IncreaseTo(ctx, expiry+chain.OracleLockingPeriod+1); err != nil {
		return err
	}
	data, err := funcSetExpiryPrice.EncodeArgs(asset, new(big.Int).SetUint64(expiry), price)
	if err != nil {
		return err
	}
	if err := c.sendImpersonated(ctx, pricer, oracle, pricerFunding, data); err != nil {
		return fmt.Errorf("set expiry price: %w", err)
	}
	ts, err := c.LatestTimestamp(ctx)
	if err != nil {
		return err
	}
	c.log.Debug("expiry price set", zap.Stringer("asset", asset), zap.Uint64("expiry", expiry), zap.Stringer("price", price))
	return c.IncreaseTo(ctx, ts+chain.OracleDisputePeriod+1)
}
