package deploy_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/artifact"
	"github.com/3jane-protocol/3jane-contracts/internal/crypto"
	"github.com/3jane-protocol/3jane-contracts/internal/deploy"
	"github.com/3jane-protocol/3jane-contracts/internal/domain"
	"github.com/3jane-protocol/3jane-contracts/internal/rpctest"
	"github.com/3jane-protocol/3jane-contracts/internal/store"
)

const hardhatKey0 = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	deployerAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	firstCreate  = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	secondCreate = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	vaultAddr    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

type artifacts map[string]*artifact.Artifact

func (a artifacts) Load(name string) (*artifact.Artifact, error) {
	if art, ok := a[name]; ok {
		return art, nil
	}
	return nil, fmt.Errorf("%w: %s", artifact.ErrNotFound, name)
}

func mustArtifact(t *testing.T, name, abiJSON string) *artifact.Artifact {
	t.Helper()
	a, err := artifact.Parse([]byte(`{"contractName":"` + name + `","sourceName":"contracts/` + name +
		`.sol","bytecode":"0x6080604052","linkReferences":{},"abi":` + abiJSON + `}`))
	require.NoError(t, err)
	return a
}

type harness struct {
	node     *rpctest.Node
	deployer *deploy.Deployer
	store    *store.DeploymentFileStore
}

func newHarness(t *testing.T) harness {
	t.Helper()
	node := rpctest.New()
	client := w3.NewClient(rpctest.Start(t, node))
	backend := deploy.NewW3Backend(client, crypto.MustParseKey(hardhatKey0), 1)
	backend.PollInterval = time.Millisecond
	require.NoError(t, backend.CheckChainID(context.Background()))

	arts := artifacts{
		"EthenaDepositHelper": mustArtifact(t, "EthenaDepositHelper",
			`[{"type":"constructor","inputs":[{"name":"_vault","type":"address"},{"name":"_slippage","type":"uint256"}]}]`),
		deploy.ProxyContract: mustArtifact(t, deploy.ProxyContract,
			`[{"type":"constructor","inputs":[{"name":"logic","type":"address"},{"name":"admin","type":"address"},{"name":"data","type":"bytes"}]}]`),
	}
	st := store.NewDeploymentFileStore(t.TempDir(), 1)
	return harness{node: node, store: st, deployer: deploy.New(backend, st, arts, zap.NewNop())}
}

func TestDeploy_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	opts := deploy.Options{Contract: "EthenaDepositHelper", Args: []any{vaultAddr, 98}}
	assert.Equal(t, deployerAddr, h.deployer.From())

	first, err := h.deployer.Deploy(ctx, "EthenaDepositHelperMainnet", opts)
	require.NoError(t, err)
	assert.True(t, first.Newly)
	assert.Equal(t, firstCreate, first.Address)
	assert.Equal(t, "EthenaDepositHelper", first.Contract)
	assert.Equal(t, []string{vaultAddr.Hex(), "98"}, first.Args)
	require.Len(t, h.node.Txs(), 1)
	assert.True(t, h.node.Txs()[0].Raw)
	assert.Equal(t, deployerAddr, h.node.Txs()[0].From)

	again, err := h.deployer.Deploy(ctx, "EthenaDepositHelperMainnet", opts)
	require.NoError(t, err)
	assert.False(t, again.Newly)
	assert.Equal(t, firstCreate, again.Address)
	assert.Len(t, h.node.Txs(), 1)

	stored, err := h.deployer.Get("EthenaDepositHelperMainnet")
	require.NoError(t, err)
	assert.Equal(t, first.TxHash, stored.TxHash)
	assert.Equal(t, first.BytecodeHash, stored.BytecodeHash)
}

func TestDeploy_RedeploysOnChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.deployer.Deploy(ctx, "EthenaDepositHelperMainnet", deploy.Options{
		Contract: "EthenaDepositHelper", Args: []any{vaultAddr, 98},
	})
	require.NoError(t, err)

	changed, err := h.deployer.Deploy(ctx, "EthenaDepositHelperMainnet", deploy.Options{
		Contract: "EthenaDepositHelper", Args: []any{vaultAddr, 99},
	})
	require.NoError(t, err)
	assert.True(t, changed.Newly)
	assert.Equal(t, secondCreate, changed.Address)

	h.node.SetCode(secondCreate, nil)
	gone, err := h.deployer.Deploy(ctx, "EthenaDepositHelperMainnet", deploy.Options{
		Contract: "EthenaDepositHelper", Args: []any{vaultAddr, 99},
	})
	require.NoError(t, err)
	assert.True(t, gone.Newly)
	assert.Len(t, h.node.Txs(), 3)

	list, err := h.store.ListDeployments()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, gone.Address, list[0].Address)
}

func TestDeploy_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.deployer.Deploy(ctx, "Unknown", deploy.Options{})
	require.ErrorIs(t, err, artifact.ErrNotFound)

	_, err = h.deployer.Deploy(ctx, "EthenaDepositHelperMainnet", deploy.Options{
		Contract: "EthenaDepositHelper", Args: []any{vaultAddr},
	})
	require.Error(t, err)
	assert.Empty(t, h.node.Txs())

	_, err = h.deployer.Get("EthenaDepositHelperMainnet")
	require.ErrorIs(t, err, domain.ErrDeploymentNotFound)
}

func TestDeployProxy(t *testing.T) {
	h := newHarness(t)
	logic := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	admin := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	res, err := h.deployer.DeployProxy(context.Background(), "RibbonThetaVaultSUSDEPutWithSwap", logic, admin, []byte{0x12, 0x34})
	require.NoError(t, err)
	assert.Equal(t, deploy.ProxyContract, res.Contract)
	assert.Equal(t, []string{logic.Hex(), admin.Hex(), "0x1234"}, res.Args)
	assert.Equal(t, common.LeftPadBytes(logic.Bytes(), 32), []byte(res.ArgsData[:32]))
}

func TestExecuteAndCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	emitter := common.HexToAddress("0x00000000000000000000000000000000000000e1")
	newVault := w3.MustNewFunc("newVault(address,uint8)", "")

	var seen common.Address
	h.node.TxHandlers[rpctest.Selector("newVault(address,uint8)")] = func(from, to common.Address, input []byte, _ *big.Int) error {
		if to != emitter {
			return errors.New("wrong target")
		}
		var vault common.Address
		var kind uint8
		if err := newVault.DecodeArgs(input, &vault, &kind); err != nil {
			return err
		}
		if kind != 0 {
			return errors.New("only normal vaults")
		}
		seen = vault
		return nil
	}

	data, err := newVault.EncodeArgs(vaultAddr, uint8(0))
	require.NoError(t, err)
	rcpt, err := h.deployer.Execute(ctx, emitter, data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rcpt.Status)
	assert.Equal(t, vaultAddr, seen)

	data, err = newVault.EncodeArgs(vaultAddr, uint8(2))
	require.NoError(t, err)
	_, err = h.deployer.Execute(ctx, emitter, data)
	require.ErrorIs(t, err, deploy.ErrReverted)

	h.node.CallHandlers[rpctest.Selector("VAULT()")] = func(common.Address, []byte) ([]byte, error) {
		return rpctest.Word(new(big.Int).SetBytes(vaultAddr.Bytes())), nil
	}
	var got common.Address
	require.NoError(t, h.deployer.Call(ctx, emitter, w3.MustNewFunc("VAULT()", "address"), nil, &got))
	assert.Equal(t, vaultAddr, got)
}
