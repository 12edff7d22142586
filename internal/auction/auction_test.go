package auction_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/lmittmann/w3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3jane-protocol/3jane-contracts/internal/auction"
	"github.com/3jane-protocol/3jane-contracts/internal/rpctest"
)

const initialOrderHex = "0x" +
	"0000000000000001" +
	"00000000000000000ee6b280" +
	"0000000000000002540be400"

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func initialOrder() auction.Order {
	return auction.Order{
		UserID:     1,
		BuyAmount:  uint256.NewInt(250_000_000),    // 250 USDC
		SellAmount: uint256.NewInt(10_000_000_000), // 100 oTokens
	}
}

func TestEncodeOrder(t *testing.T) {
	got, err := auction.EncodeOrderHex(initialOrder())
	require.NoError(t, err)
	assert.Equal(t, initialOrderHex, got)

	back, err := auction.ParseOrder(got)
	require.NoError(t, err)
	assert.True(t, back.Equal(initialOrder()))
	assert.Equal(t, uint64(250_000_000), back.BuyAmount.Uint64())
	assert.Equal(t, uint64(10_000_000_000), back.SellAmount.Uint64())
}

func TestEncodeOrder_Bounds(t *testing.T) {
	max96 := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 96), uint256.NewInt(1))
	o := auction.Order{UserID: ^uint64(0), BuyAmount: max96, SellAmount: max96}
	b, err := auction.EncodeOrder(o)
	require.NoError(t, err)
	for _, x := range b {
		assert.Equal(t, byte(0xff), x)
	}
	assert.True(t, auction.DecodeOrder(b).Equal(o))

	o.SellAmount = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	_, err = auction.EncodeOrder(o)
	require.ErrorIs(t, err, auction.ErrAmountOverflow)
}

func TestEncodeOrder_NilAmountsAreZero(t *testing.T) {
	b, err := auction.EncodeOrder(auction.Order{UserID: 9})
	require.NoError(t, err)
	d := auction.DecodeOrder(b)
	assert.Equal(t, uint64(9), d.UserID)
	assert.True(t, d.BuyAmount.IsZero())
	assert.True(t, d.Equal(auction.Order{UserID: 9}))
}

func TestParseOrder_Invalid(t *testing.T) {
	_, err := auction.ParseOrder("0x1234")
	require.Error(t, err)

	_, err = auction.ParseOrder("zz" + initialOrderHex[4:])
	require.Error(t, err)
}

func TestQueueStartElement(t *testing.T) {
	d := auction.DecodeOrder(auction.QueueStartElement)
	assert.Zero(t, d.UserID)
	assert.True(t, d.BuyAmount.IsZero())
	assert.Equal(t, uint64(1), d.SellAmount.Uint64())
}

func TestMinPriceE18(t *testing.T) {
	p, err := auction.MinPriceE18(initialOrder(), 6)
	require.NoError(t, err)
	assert.Equal(t, bi("2500000000000000000"), p)

	_, err = auction.MinPriceE18(auction.Order{BuyAmount: uint256.NewInt(1)}, 6)
	require.Error(t, err)
	_, err = auction.MinPriceE18(initialOrder(), 37)
	require.Error(t, err)
}

func TestOptionsAvailable(t *testing.T) {
	got, err := auction.OptionsAvailable(bi("100000000000"), big.NewInt(2), big.NewInt(1000), big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, bi("99800399201"), got)

	got, err = auction.OptionsAvailable(bi("100000000000"), big.NewInt(0), big.NewInt(1000), big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, bi("10000000000"), got)

	_, err = auction.OptionsAvailable(bi("1"), big.NewInt(0), big.NewInt(0), big.NewInt(1))
	require.Error(t, err)
	_, err = auction.OptionsAvailable(bi("1"), big.NewInt(0), big.NewInt(1), big.NewInt(0))
	require.Error(t, err)
}

func TestBidAmount(t *testing.T) {
	premium := bi("50000000000000000") // 0.05
	assert.Equal(t, big.NewInt(50_000), auction.BidAmount(big.NewInt(100_000_000), premium, 6))
	assert.Equal(t, premium, auction.BidAmount(big.NewInt(100_000_000), premium, 18))
	assert.Equal(t, bi("500000000000000000"), auction.BidAmount(big.NewInt(100_000_000), premium, 19))
}

func words(vals ...*big.Int) []byte {
	var out []byte
	for _, v := range vals {
		out = append(out, rpctest.Word(v)...)
	}
	return out
}

func TestClient(t *testing.T) {
	addr := common.HexToAddress("0x0b7fFc1f4AD541A4Ed16b40D8c37f0929158D101")
	otoken := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	order, err := auction.EncodeOrder(initialOrder())
	require.NoError(t, err)

	node := rpctest.New()
	node.CallHandlers[rpctest.Selector("auctionCounter()")] = func(common.Address, []byte) ([]byte, error) {
		return words(big.NewInt(7)), nil
	}
	var requested *big.Int
	node.CallHandlers[rpctest.Selector("auctionData(uint256)")] = func(_ common.Address, in []byte) ([]byte, error) {
		requested = new(big.Int).SetBytes(in[4:36])
		return words(
			new(big.Int).SetBytes(otoken.Bytes()),
			new(big.Int).SetBytes(usdc.Bytes()),
			big.NewInt(1_700_000_000),
			big.NewInt(1_700_003_600),
			new(big.Int).SetBytes(order[:]),
			big.NewInt(1000),
			big.NewInt(0),
			new(big.Int).SetBytes(auction.QueueStartElement[:]),
			new(big.Int).SetBytes(auction.QueueStartElement[:]),
			big.NewInt(0),
			big.NewInt(0),
			big.NewInt(1),
			big.NewInt(2),
			big.NewInt(0),
		), nil
	}
	node.CallHandlers[rpctest.Selector("feeNumerator()")] = func(common.Address, []byte) ([]byte, error) {
		return words(big.NewInt(2)), nil
	}
	node.CallHandlers[rpctest.Selector("FEE_DENOMINATOR()")] = func(common.Address, []byte) ([]byte, error) {
		return words(big.NewInt(1000)), nil
	}
	c := auction.NewClient(w3.NewClient(rpctest.Start(t, node)), addr)
	ctx := context.Background()

	price, err := c.MinPrice(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, bi("2500000000000000000"), price)
	assert.Equal(t, big.NewInt(7), requested)

	d, err := c.AuctionData(ctx, big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, otoken, d.AuctioningToken)
	assert.Equal(t, usdc, d.BiddingToken)
	assert.Equal(t, big.NewInt(1_700_003_600), d.AuctionEndDate)
	assert.Equal(t, big.NewInt(2), d.FeeNumerator)

	num, den, err := c.Fees(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2), num)
	assert.Equal(t, big.NewInt(1000), den)
}

func TestPlaceSellOrdersData(t *testing.T) {
	data, err := auction.PlaceSellOrdersData(big.NewInt(7), big.NewInt(50_000), big.NewInt(100_000_000))
	require.NoError(t, err)
	sel := rpctest.Selector("placeSellOrders(uint256,uint96[],uint96[],bytes32[],bytes)")
	assert.Equal(t, sel[:], data[:4])
	assert.Equal(t, rpctest.Word(big.NewInt(7)), data[4:36])

	data, err = auction.SettleAuctionData(big.NewInt(7))
	require.NoError(t, err)
	sel = rpctest.Selector("settleAuction(uint256)")
	assert.Equal(t, sel[:], data[:4])
	assert.Len(t, data, 36)
}
