package auction

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
)

var (
	funcAuctionCounter = w3.MustNewFunc("auctionCounter()", "uint256")
	funcAuctionData    = w3.MustNewFunc("auctionData(uint256)",
		"address auctioningToken,address biddingToken,uint256 orderCancellationEndDate,uint256 auctionEndDate,"+
			"bytes32 initialAuctionOrder,uint256 minimumBiddingAmountPerOrder,uint256 interimSumBidAmount,"+
			"bytes32 interimOrder,bytes32 clearingPriceOrder,uint96 volumeClearingPriceOrder,"+
			"bool minFundingThresholdNotReached,bool isAtomicClosureAllowed,uint256 feeNumerator,uint256 minFundingThreshold")
	funcFeeNumerator   = w3.MustNewFunc("feeNumerator()", "uint256")
	funcFeeDenominator = w3.MustNewFunc("FEE_DENOMINATOR()", "uint256")

	funcPlaceSellOrders = w3.MustNewFunc(
		"placeSellOrders(uint256 auctionId,uint96[] minBuyAmounts,uint96[] sellAmounts,bytes32[] prevSellOrders,bytes allowListCallData)",
		"uint64")
	funcSettleAuction = w3.MustNewFunc("settleAuction(uint256)", "bytes32")
)

// Data is the subset of auctionData(id) the tooling reads.
type Data struct {
	AuctioningToken     common.Address
	BiddingToken        common.Address
	AuctionEndDate      *big.Int
	InitialAuctionOrder Order
	ClearingPriceOrder  Order
	FeeNumerator        *big.Int
}

// Client reads a Gnosis EasyAuction contract.
type Client struct {
	rpc     *w3.Client
	address common.Address
}

// NewClient returns a Client for the auction contract at address.
func NewClient(rpc *w3.Client, address common.Address) *Client {
	return &Client{rpc: rpc, address: address}
}

// Address returns the auction contract address.
func (c *Client) Address() common.Address { return c.address }

// AuctionCounter returns the id of the most recent auction.
func (c *Client) AuctionCounter(ctx context.Context) (*big.Int, error) {
	var n *big.Int
	if err := c.rpc.CallCtx(ctx, eth.CallFunc(c.address, funcAuctionCounter).Returns(&n)); err != nil {
		return nil, fmt.Errorf("auction counter: %w", err)
	}
	return n, nil
}

// AuctionData returns the stored parameters of auction id.
func (c *Client) AuctionData(ctx context.Context, id *big.Int) (Data, error) {
	var (
		d                                   Data
		initial, interim, clearing          [OrderSize]byte
		cancelEnd, minBid, interimSum       *big.Int
		volumeClearing, minFunding          *big.Int
		minFundingNotReached, atomicClosure bool
	)
	err := c.rpc.CallCtx(ctx, eth.CallFunc(c.address, funcAuctionData, id).Returns(
		&d.AuctioningToken, &d.BiddingToken, &cancelEnd, &d.AuctionEndDate,
		&initial, &minBid, &interimSum, &interim, &clearing, &volumeClearing,
		&minFundingNotReached, &atomicClosure, &d.FeeNumerator, &minFunding,
	))
	if err != nil {
		return Data{}, fmt.Errorf("auction data %s: %w", id, err)
	}
	d.InitialAuctionOrder = DecodeOrder(initial)
	d.ClearingPriceOrder = DecodeOrder(clearing)
	return d, nil
}

// Fees returns the auction fee as numerator and denominator.
func (c *Client) Fees(ctx context.Context) (numerator, denominator *big.Int, err error) {
	err = c.rpc.CallCtx(ctx,
		eth.CallFunc(c.address, funcFeeNumerator).Returns(&numerator),
		eth.CallFunc(c.address, funcFeeDenominator).Returns(&denominator),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("auction fees: %w", err)
	}
	return numerator, denominator, nil
}

// MinPrice returns the minimum price, with 18 decimals, of the latest auction.
func (c *Client) MinPrice(ctx context.Context, tokenDecimals uint8) (*big.Int, error) {
	id, err := c.AuctionCounter(ctx)
	if err != nil {
		return nil, err
	}
	d, err := c.AuctionData(ctx, id)
	if err != nil {
		return nil, err
	}
	return MinPriceE18(d.InitialAuctionOrder, tokenDecimals)
}

// PlaceSellOrdersData encodes a single bid on auction id, queued after the
// queue start element.
func PlaceSellOrdersData(id, minBuyAmount, sellAmount *big.Int) ([]byte, error) {
	return funcPlaceSellOrders.EncodeArgs(
		id,
		[]*big.Int{minBuyAmount},
		[]*big.Int{sellAmount},
		[][32]byte{QueueStartElement},
		[]byte{},
	)
}

// SettleAuctionData encodes settleAuction(id).
func SettleAuctionData(id *big.Int) ([]byte, error) {
	return funcSettleAuction.EncodeArgs(id)
}
