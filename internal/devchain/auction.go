package devchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/auction"
	"github.com/3jane-protocol/3jane-contracts/internal/vault"
)

// Bid is a sell order placed by BidForOToken.
type Bid struct {
	AuctionID *big.Int
	Options   *big.Int // oTokens bought, net of fees
	Amount    *big.Int // bidding asset paid
}

// BidForOToken buys every oToken in the latest auction at premium and then
// moves time past the auction's end. bidder must be unlocked or
// impersonated and hold enough of asset.
func (c *Client) BidForOToken(
	ctx context.Context,
	gnosis *auction.Client,
	asset, bidder, otoken common.Address,
	premium *big.Int,
	assetDecimals uint8,
	multiplier *big.Int,
	duration uint64,
) (Bid, error) {
	id, err := gnosis.AuctionCounter(ctx)
	if err != nil {
		return Bid{}, err
	}
	held, err := c.BalanceOf(ctx, otoken, gnosis.Address())
	if err != nil {
		return Bid{}, err
	}
	num, den, err := gnosis.Fees(ctx)
	if err != nil {
		return Bid{}, err
	}
	options, err := auction.OptionsAvailable(held, num, den, multiplier)
	if err != nil {
		return Bid{}, err
	}
	amount := auction.BidAmount(options, premium, assetDecimals)

	approve, err := funcApprove.EncodeArgs(gnosis.Address(), amount)
	if err != nil {
		return Bid{}, err
	}
	if _, err := c.SendAs(ctx, bidder, &asset, approve, nil); err != nil {
		return Bid{}, fmt.Errorf("approve bid: %w", err)
	}
	place, err := auction.PlaceSellOrdersData(id, options, amount)
	if err != nil {
		return Bid{}, err
	}
	to := gnosis.Address()
	if _, err := c.SendAs(ctx, bidder, &to, place, nil); err != nil {
		return Bid{}, fmt.Errorf("place sell order: %w", err)
	}
	c.log.Debug("bid placed", zap.Stringer("auction", id), zap.Stringer("options", options), zap.Stringer("amount", amount))

	now, err := c.LatestTimestamp(ctx)
	if err != nil {
		return Bid{}, err
	}
	if err := c.IncreaseTo(ctx, now+duration); err != nil {
		return Bid{}, err
	}
	return Bid{AuctionID: id, Options: options, Amount: amount}, nil
}

// CloseAuctionAndClaim settles the vault's current auction as settler and
// has keeper claim the unsold oTokens back into the vault.
func (c *Client) CloseAuctionAndClaim(ctx context.Context, gnosis *auction.Client, theta *vault.Reader, settler, keeper common.Address) error {
	id, err := theta.OptionAuctionID(ctx)
	if err != nil {
		return err
	}
	settle, err := auction.SettleAuctionData(id)
	if err != nil {
		return err
	}
	to := gnosis.Address()
	if _, err := c.SendAs(ctx, settler, &to, settle, nil); err != nil {
		return fmt.Errorf("settle auction %s: %w", id, err)
	}
	claim, err := vault.FuncClaimAuctionOtokens.EncodeArgs()
	if err != nil {
		return err
	}
	addr := theta.Address()
	if _, err := c.SendAs(ctx, keeper, &addr, claim, nil); err != nil {
		return fmt.Errorf("claim auction otokens: %w", err)
	}
	return nil
}
