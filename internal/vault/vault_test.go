package vault_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3jane-protocol/3jane-contracts/internal/rpctest"
	"github.com/3jane-protocol/3jane-contracts/internal/vault"
)

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func TestWMul(t *testing.T) {
	assert.Equal(t, bi("2000000000000000000"), vault.WMul(bi("4000000000000000000"), bi("500000000000000000")))
	// 1 * 0.5 wei rounds half up
	assert.Equal(t, big.NewInt(1), vault.WMul(big.NewInt(1), bi("500000000000000000")))
	assert.Equal(t, big.NewInt(0), vault.WMul(big.NewInt(1), bi("499999999999999999")))
}

func TestSharesToAsset(t *testing.T) {
	got := vault.SharesToAsset(bi("2000000"), bi("1500000"), 6)
	assert.Equal(t, bi("3000000"), got)
}

func TestLockedBalanceForRollover(t *testing.T) {
	locked, queued, err := vault.LockedBalanceForRollover(
		bi("100000000000000000000"), // 100 total
		bi("1100000000000000000"),   // pps 1.1
		bi("10000000000000000000"),  // 10 shares queued
		18,
	)
	require.NoError(t, err)
	assert.Equal(t, bi("11000000000000000000"), queued)
	assert.Equal(t, bi("89000000000000000000"), locked)

	_, _, err = vault.LockedBalanceForRollover(big.NewInt(1), vault.WAD, big.NewInt(2), 18)
	require.Error(t, err)
}

func words(vals ...*big.Int) []byte {
	var out []byte
	for _, v := range vals {
		out = append(out, rpctest.Word(v)...)
	}
	return out
}

func TestReader_LockedBalanceForRollover(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	asset := common.HexToAddress("0x9D39A5DE30e57443BfF2A8307A4256c8797A3497")

	node := rpctest.New()
	node.CallHandlers[rpctest.Selector("totalBalance()")] = func(common.Address, []byte) ([]byte, error) {
		return words(bi("50000000")), nil
	}
	node.CallHandlers[rpctest.Selector("pricePerShare()")] = func(common.Address, []byte) ([]byte, error) {
		return words(bi("2000000")), nil
	}
	node.CallHandlers[rpctest.Selector("vaultState()")] = func(common.Address, []byte) ([]byte, error) {
		return words(big.NewInt(3), bi("40000000"), bi("39000000"), bi("1000000"), bi("5000000")), nil
	}
	node.CallHandlers[rpctest.Selector("vaultParams()")] = func(common.Address, []byte) ([]byte, error) {
		return words(big.NewInt(1), big.NewInt(6), new(big.Int).SetBytes(asset.Bytes()),
			new(big.Int).SetBytes(asset.Bytes()), big.NewInt(10), bi("1000000000000")), nil
	}
	client := w3.NewClient(rpctest.Start(t, node))
	r := vault.NewReader(client, addr)

	locked, queued, err := r.LockedBalanceForRollover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bi("10000000"), queued)
	assert.Equal(t, bi("40000000"), locked)

	p, err := r.Params(context.Background())
	require.NoError(t, err)
	assert.True(t, p.IsPut)
	assert.Equal(t, uint8(6), p.Decimals)
	assert.Equal(t, asset, p.Asset)

	s, err := r.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(3), s.Round)
}
