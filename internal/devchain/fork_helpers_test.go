//go:build fork

package devchain_test

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/joho/godotenv"
	"github.com/lmittmann/w3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/3jane-protocol/3jane-contracts/internal/artifact"
	"github.com/3jane-protocol/3jane-contracts/internal/chain"
	"github.com/3jane-protocol/3jane-contracts/internal/crypto"
	"github.com/3jane-protocol/3jane-contracts/internal/deploy"
	"github.com/3jane-protocol/3jane-contracts/internal/devchain"
	"github.com/3jane-protocol/3jane-contracts/internal/store"
)

// Environment read by the fork suites. TEST_URI is the archive node the
// dev node forks from; DEVCHAIN_URL is the Hardhat node itself.
const (
	envTestURI     = "TEST_URI"
	envDevchainURL = "DEVCHAIN_URL"
	envArtifacts   = "ARTIFACTS_DIR"

	// first account of the default Hardhat mnemonic, unlocked on the node
	hardhatKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

var (
	funcVaultBalance = w3.MustNewFunc("balance(address)", "uint256")
	maxUint256       = math.MaxBig256
)

type fork struct {
	*devchain.Client
	deployer *deploy.Deployer
	signer   common.Address
}

// newFork resets the dev node to block and returns helpers sending as the
// node's first unlocked account.
func newFork(t *testing.T, block uint64) *fork {
	t.Helper()
	_ = godotenv.Load(filepath.Join("..", "..", ".env"))
	uri, arts := os.Getenv(envTestURI), os.Getenv(envArtifacts)
	if uri == "" || arts == "" {
		t.Skipf("%s and %s must be set", envTestURI, envArtifacts)
	}
	node := os.Getenv(envDevchainURL)
	if node == "" {
		node = "http://127.0.0.1:8545"
	}
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	c, err := devchain.Dial(ctx, node, chain.DefaultBook(), chain.EthMainnet, log)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	require.NoError(t, c.Reset(ctx, uri, block))

	signer := crypto.Address(crypto.MustParseKey(hardhatKey))
	d := deploy.New(c.Backend(signer), store.NewDeploymentFileStore(t.TempDir(), chain.EthMainnet), artifact.NewLoader(arts), log)
	return &fork{Client: c, deployer: d, signer: signer}
}

func (f *fork) token(t *testing.T, symbol string) common.Address {
	t.Helper()
	addr, err := f.Book().Lookup(symbol, f.ChainID())
	require.NoError(t, err)
	return addr
}

// holder returns the account MintToken funds symbol from, taken from
// <SYMBOL>_OWNER. Cases needing an unset holder are skipped.
func holder(t *testing.T, symbol string) common.Address {
	t.Helper()
	v := os.Getenv(symbol + "_OWNER")
	if !common.IsHexAddress(v) {
		t.Skipf("%s_OWNER not set", symbol)
	}
	return common.HexToAddress(v)
}

func (f *fork) deploy(t *testing.T, name string, args ...any) common.Address {
	t.Helper()
	res, err := f.deployer.Deploy(context.Background(), name, deploy.Options{Args: args})
	require.NoError(t, err)
	return res.Address
}

// deployHelper deploys a deposit helper for vault, passing slippage when
// the constructor takes it.
func (f *fork) deployHelper(t *testing.T, name string, vault common.Address, slippage int64) common.Address {
	t.Helper()
	a, err := f.deployer.Artifact(name)
	require.NoError(t, err)
	args := []any{vault}
	if len(a.ABI.Constructor.Inputs) == 2 {
		args = append(args, big.NewInt(slippage))
	}
	return f.deploy(t, name, args...)
}

func (f *fork) send(t *testing.T, from, to common.Address, fn *w3.Func, value *big.Int, args ...any) {
	t.Helper()
	data, err := fn.EncodeArgs(args...)
	require.NoError(t, err)
	_, err = f.SendAs(context.Background(), from, &to, data, value)
	require.NoError(t, err)
}

// callErr runs fn as an eth_call from the signer and returns its error.
func (f *fork) callErr(t *testing.T, to common.Address, fn *w3.Func, args ...any) error {
	t.Helper()
	data, err := fn.EncodeArgs(args...)
	require.NoError(t, err)
	_, err = f.Backend(f.signer).Call(context.Background(), to, data)
	return err
}

func (f *fork) read(t *testing.T, to common.Address, fn *w3.Func, out any, args ...any) {
	t.Helper()
	require.NoError(t, f.deployer.Call(context.Background(), to, fn, args, out))
}

func (f *fork) balance(t *testing.T, token, holder common.Address) *big.Int {
	t.Helper()
	bal, err := f.BalanceOf(context.Background(), token, holder)
	require.NoError(t, err)
	return bal
}

func (f *fork) vaultBalance(t *testing.T, vault, account common.Address) *big.Int {
	t.Helper()
	var bal *big.Int
	f.read(t, vault, funcVaultBalance, &bal, account)
	return bal
}

func units(n int64, decimals uint) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
}

func dec(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, s)
	return n
}

func quoteData(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name+".hex"))
	require.NoError(t, err)
	data, err := hexutil.Decode(strings.TrimSpace(string(b)))
	require.NoError(t, err)
	return data
}

func signPermit(t *testing.T, token, spender common.Address, value *big.Int, cfg crypto.PermitConfig) (uint8, [32]byte, [32]byte) {
	t.Helper()
	sig, err := crypto.SignPermit(crypto.MustParseKey(devchain.WalletKey), token, spender, value, maxUint256, cfg)
	require.NoError(t, err)
	return sig.V, [32]byte(sig.R), [32]byte(sig.S)
}
