package devchain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/3jane-protocol/3jane-contracts/internal/auction"
	"github.com/3jane-protocol/3jane-contracts/internal/chain"
	"github.com/3jane-protocol/3jane-contracts/internal/crypto"
	"github.com/3jane-protocol/3jane-contracts/internal/deploy"
	"github.com/3jane-protocol/3jane-contracts/internal/devchain"
	"github.com/3jane-protocol/3jane-contracts/internal/domain"
	"github.com/3jane-protocol/3jane-contracts/internal/rpctest"
	"github.com/3jane-protocol/3jane-contracts/internal/vault"
)

var (
	owner     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	spender   = common.HexToAddress("0x00000000000000000000000000000000000000a3")

	tenEther = new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))

	transferFn   = w3.MustNewFunc("transfer(address,uint256)", "bool")
	approveFn    = w3.MustNewFunc("approve(address,uint256)", "bool")
	mintFn       = w3.MustNewFunc("mint(address,uint256)", "")
	bridgeMintFn = w3.MustNewFunc("mint(address,uint256,address,uint256,bytes32)", "")
)

func newClient(t *testing.T, id domain.ChainID) (*devchain.Client, *rpctest.Node) {
	t.Helper()
	node := rpctest.New()
	node.ChainID = uint64(id)
	c := devchain.New(rpctest.Start(t, node), chain.DefaultBook(), id, zaptest.NewLogger(t))
	c.PollInterval = time.Millisecond
	return c, node
}

func encode(t *testing.T, fn *w3.Func, args ...any) []byte {
	t.Helper()
	b, err := fn.EncodeArgs(args...)
	require.NoError(t, err)
	return b
}

func word(v int64) []byte { return rpctest.Word(big.NewInt(v)) }

func TestReset(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx, "https://eth.example/rpc", 19572557))
	require.NoError(t, c.Reset(ctx, "", 0))

	resets := node.Resets()
	require.Len(t, resets, 2)
	require.NotNil(t, resets[0].Forking)
	assert.Equal(t, "https://eth.example/rpc", resets[0].Forking.JSONRPCURL)
	assert.Equal(t, uint64(19572557), resets[0].Forking.BlockNumber)
	assert.Nil(t, resets[1].Forking)
}

func TestTime(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()
	start := node.Time()

	require.NoError(t, c.IncreaseTime(ctx, 100))
	// evm_mine after evm_increaseTime adds a second on this node
	assert.Equal(t, start+101, node.Time())

	require.NoError(t, c.IncreaseTo(ctx, start+1000))
	ts, err := c.LatestTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, start+1000, ts)

	require.Error(t, c.IncreaseTo(ctx, start))
	assert.Contains(t, node.Methods(), "evm_setNextBlockTimestamp")
}

func TestSnapshotRevert(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()
	require.NoError(t, c.SetBalance(ctx, owner, big.NewInt(1)))

	t.Run("mutates", func(t *testing.T) {
		c.RevertToSnapshotAfterEach(t)
		require.NoError(t, c.SetBalance(ctx, owner, tenEther))
		assert.Equal(t, tenEther, node.Balance(owner))
	})
	assert.Equal(t, big.NewInt(1), node.Balance(owner))

	id, err := c.Snapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, c.SetBalance(ctx, owner, big.NewInt(2)))
	require.NoError(t, c.Revert(ctx, id))
	assert.Equal(t, big.NewInt(1), node.Balance(owner))

	require.Error(t, c.Revert(ctx, id))
}

func TestAddBalance(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()

	require.NoError(t, c.AddBalance(ctx, owner, tenEther))
	require.NoError(t, c.AddBalance(ctx, owner, big.NewInt(1)))
	want := new(big.Int).Add(tenEther, big.NewInt(1))
	assert.Equal(t, want, node.Balance(owner))

	bal, err := c.EtherBalance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, want, bal)
}

func TestAsImpersonated(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()
	boom := errors.New("boom")

	err := c.AsImpersonated(ctx, owner, func() error {
		assert.True(t, node.Impersonating(owner))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, node.Impersonating(owner))
}

func TestSendAs(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()
	token := chain.DefaultBook().MustLookup("USDC", chain.EthMainnet)

	_, err := c.SendAs(ctx, owner, &token, encode(t, transferFn, recipient, big.NewInt(1)), nil)
	require.Error(t, err, "owner is not unlocked")

	require.NoError(t, c.Impersonate(ctx, owner))
	node.TxHandlers[rpctest.Selector("transfer(address,uint256)")] = func(common.Address, common.Address, []byte, *big.Int) error {
		return errors.New("transfer amount exceeds balance")
	}
	rcpt, err := c.SendAs(ctx, owner, &token, encode(t, transferFn, recipient, big.NewInt(1)), nil)
	require.ErrorIs(t, err, deploy.ErrReverted)
	require.NotNil(t, rcpt)

	// the backend hands back failed receipts for the deployer to judge
	rcpt, err = c.Backend(owner).Send(ctx, &token, encode(t, transferFn, recipient, big.NewInt(1)), nil)
	require.NoError(t, err)
	assert.Zero(t, rcpt.Status)
}

func TestBackendDeploys(t *testing.T) {
	c, _ := newClient(t, chain.EthMainnet)
	ctx := context.Background()
	require.NoError(t, c.Impersonate(ctx, owner))
	b := c.Backend(owner)
	assert.Equal(t, owner, b.From())

	rcpt, err := b.Send(ctx, nil, []byte{0x60, 0x80}, nil)
	require.NoError(t, err)
	code, err := b.Code(ctx, rcpt.ContractAddress)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x80}, code)
}

func TestMintToken(t *testing.T) {
	book := chain.DefaultBook()
	amount := big.NewInt(1_000_000_000)

	t.Run("transfer funded", func(t *testing.T) {
		c, node := newClient(t, chain.EthMainnet)
		usdc := book.MustLookup("USDC", chain.EthMainnet)
		require.NoError(t, c.MintToken(context.Background(), usdc, owner, recipient, spender, amount))

		txs := node.Txs()
		require.Len(t, txs, 2)
		assert.Equal(t, owner, txs[0].From)
		assert.Equal(t, usdc, *txs[0].To)
		assert.Equal(t, encode(t, transferFn, recipient, amount), txs[0].Data)
		assert.Equal(t, recipient, txs[1].From)
		assert.Equal(t, encode(t, approveFn, spender, amount), txs[1].Data)

		assert.Equal(t, tenEther, node.Balance(owner))
		assert.False(t, node.Impersonating(owner))
		assert.False(t, node.Impersonating(recipient))
	})

	t.Run("keeps owner ether", func(t *testing.T) {
		c, node := newClient(t, chain.EthMainnet)
		ctx := context.Background()
		whale := new(big.Int).Mul(big.NewInt(5000), big.NewInt(1e18))
		require.NoError(t, c.SetBalance(ctx, owner, whale))

		usdc := book.MustLookup("USDC", chain.EthMainnet)
		require.NoError(t, c.MintToken(ctx, usdc, owner, recipient, spender, amount))
		assert.Equal(t, new(big.Int).Add(whale, tenEther), node.Balance(owner))
	})

	t.Run("mintable without spender", func(t *testing.T) {
		c, node := newClient(t, chain.EthMainnet)
		weth := book.MustLookup("WETH", chain.EthMainnet)
		require.NoError(t, c.MintToken(context.Background(), weth, owner, recipient, common.Address{}, amount))

		txs := node.Txs()
		require.Len(t, txs, 1)
		assert.Equal(t, encode(t, mintFn, recipient, amount), txs[0].Data)
	})

	t.Run("avalanche bridge token", func(t *testing.T) {
		c, node := newClient(t, chain.AvaxMainnet)
		usdc := book.MustLookup("USDC", chain.AvaxMainnet)
		require.NoError(t, c.MintToken(context.Background(), usdc, owner, recipient, common.Address{}, amount))

		var txid [32]byte
		copy(txid[:], "Hello World!")
		txs := node.Txs()
		require.Len(t, txs, 1)
		assert.Equal(t, encode(t, bridgeMintFn, recipient, amount, recipient, big.NewInt(0), txid), txs[0].Data)
	})

	t.Run("reverted mint", func(t *testing.T) {
		c, node := newClient(t, chain.EthMainnet)
		node.TxHandlers[rpctest.Selector("mint(address,uint256)")] = func(common.Address, common.Address, []byte, *big.Int) error {
			return errors.New("caller is not the minter")
		}
		weth := book.MustLookup("WETH", chain.EthMainnet)
		err := c.MintToken(context.Background(), weth, owner, recipient, spender, amount)
		require.ErrorIs(t, err, deploy.ErrReverted)
		assert.False(t, node.Impersonating(owner))
		assert.Len(t, node.Txs(), 1)
	})
}

func TestBalanceAndAllowance(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()
	token := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	node.CallHandlers[rpctest.Selector("balanceOf(address)")] = func(to common.Address, in []byte) ([]byte, error) {
		if common.BytesToAddress(in[4:36]) == recipient {
			return word(42), nil
		}
		return word(0), nil
	}
	node.CallHandlers[rpctest.Selector("allowance(address,address)")] = func(common.Address, []byte) ([]byte, error) {
		return word(7), nil
	}

	bal, err := c.BalanceOf(ctx, token, recipient)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), bal)

	allowance, err := c.Allowance(ctx, token, recipient, spender)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), allowance)
}

func TestGenerateWallet(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()
	usdc := chain.DefaultBook().MustLookup("USDC", chain.EthMainnet)
	require.NoError(t, c.Impersonate(ctx, owner))
	require.NoError(t, c.SetBalance(ctx, owner, new(big.Int).Mul(tenEther, big.NewInt(2))))

	key, err := c.GenerateWallet(ctx, usdc, big.NewInt(500), owner)
	require.NoError(t, err)
	wallet := crypto.Address(key)
	assert.Equal(t, crypto.Address(crypto.MustParseKey(devchain.WalletKey)), wallet)
	assert.True(t, node.Impersonating(wallet))
	assert.Equal(t, tenEther, node.Balance(wallet))

	txs := node.Txs()
	require.Len(t, txs, 2)
	assert.Equal(t, encode(t, transferFn, wallet, big.NewInt(500)), txs[0].Data)
	assert.Equal(t, wallet, *txs[1].To)
}

func TestSetOracleExpiryPrice(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()
	asset := chain.DefaultBook().MustLookup("WETH", chain.EthMainnet)
	oracle := chain.DefaultBook().MustLookup("GAMMA_ORACLE", chain.EthMainnet)
	pricer := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	expiry := node.Time() + 1000
	price := big.NewInt(2500_00000000)

	require.NoError(t, c.SetOracleExpiryPrice(ctx, asset, oracle, pricer, expiry, price))

	txs := node.Txs()
	require.Len(t, txs, 1)
	assert.Equal(t, pricer, txs[0].From)
	assert.Equal(t, oracle, *txs[0].To)
	fn := w3.MustNewFunc("setExpiryPrice(address,uint256,uint256)", "")
	assert.Equal(t, encode(t, fn, asset, new(big.Int).SetUint64(expiry), price), txs[0].Data)
	assert.False(t, node.Impersonating(pricer))

	afterLock := expiry + chain.OracleLockingPeriod + 1
	assert.Equal(t, afterLock+chain.OracleDisputePeriod+1, node.Time())
}

func TestSetAssetPricerAndWhitelist(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()
	book := chain.DefaultBook()
	weth := book.MustLookup("WETH", chain.EthMainnet)
	usdc := book.MustLookup("USDC", chain.EthMainnet)
	pricer := common.HexToAddress("0x00000000000000000000000000000000000000c1")

	require.NoError(t, c.SetAssetPricer(ctx, weth, pricer, chain.Gamma))
	require.NoError(t, c.WhitelistProduct(ctx, weth, usdc, usdc, true, chain.Gamma))

	txs := node.Txs()
	require.Len(t, txs, 3)
	assert.Equal(t, book.MustLookup("ORACLE_OWNER", chain.EthMainnet), txs[0].From)
	assert.Equal(t, book.MustLookup("GAMMA_ORACLE", chain.EthMainnet), *txs[0].To)
	whitelistOwner := book.MustLookup("GAMMA_WHITELIST_OWNER", chain.EthMainnet)
	assert.Equal(t, whitelistOwner, txs[1].From)
	sel := rpctest.Selector("whitelistCollateral(address)")
	assert.Equal(t, sel[:], txs[1].Data[:4])
	sel = rpctest.Selector("whitelistProduct(address,address,address,bool)")
	assert.Equal(t, sel[:], txs[2].Data[:4])
	assert.False(t, node.Impersonating(whitelistOwner))

	require.Error(t, c.SetAssetPricer(ctx, weth, pricer, chain.TD))
}

func TestBidAndSettle(t *testing.T) {
	c, node := newClient(t, chain.EthMainnet)
	ctx := context.Background()
	book := chain.DefaultBook()
	gnosisAddr := book.MustLookup("GNOSIS_EASY_AUCTION", chain.EthMainnet)
	usdc := book.MustLookup("USDC", chain.EthMainnet)
	otoken := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	thetaAddr := common.HexToAddress("0x00000000000000000000000000000000000000d2")
	keeper := common.HexToAddress("0x00000000000000000000000000000000000000d3")

	node.CallHandlers[rpctest.Selector("auctionCounter()")] = func(common.Address, []byte) ([]byte, error) {
		return word(7), nil
	}
	node.CallHandlers[rpctest.Selector("optionAuctionID()")] = func(common.Address, []byte) ([]byte, error) {
		return word(7), nil
	}
	node.CallHandlers[rpctest.Selector("balanceOf(address)")] = func(common.Address, []byte) ([]byte, error) {
		return word(100_200_000_000), nil
	}
	node.CallHandlers[rpctest.Selector("feeNumerator()")] = func(common.Address, []byte) ([]byte, error) {
		return word(2), nil
	}
	node.CallHandlers[rpctest.Selector("FEE_DENOMINATOR()")] = func(common.Address, []byte) ([]byte, error) {
		return word(1000), nil
	}
	for _, a := range []common.Address{recipient, keeper} {
		require.NoError(t, c.Impersonate(ctx, a))
	}
	gnosis := auction.NewClient(c.W3(), gnosisAddr)
	start := node.Time()

	premium := big.NewInt(50_000_000_000_000_000)
	bid, err := c.BidForOToken(ctx, gnosis, usdc, recipient, otoken, premium, 6, big.NewInt(1), 3600)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), bid.AuctionID)
	assert.Equal(t, big.NewInt(100_000_000_000), bid.Options)
	assert.Equal(t, big.NewInt(50_000_000), bid.Amount)
	assert.Equal(t, start+3600, node.Time())

	require.NoError(t, c.CloseAuctionAndClaim(ctx, gnosis, vault.NewReader(c.W3(), thetaAddr), recipient, keeper))

	txs := node.Txs()
	require.Len(t, txs, 4)
	assert.Equal(t, encode(t, approveFn, gnosisAddr, bid.Amount), txs[0].Data)
	place, err := auction.PlaceSellOrdersData(bid.AuctionID, bid.Options, bid.Amount)
	require.NoError(t, err)
	assert.Equal(t, place, txs[1].Data)
	settle, err := auction.SettleAuctionData(big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, settle, txs[2].Data)
	assert.Equal(t, keeper, txs[3].From)
	assert.Equal(t, thetaAddr, *txs[3].To)
}
