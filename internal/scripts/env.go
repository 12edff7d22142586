package scripts

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/artifact"
	"github.com/3jane-protocol/3jane-contracts/internal/chain"
	"github.com/3jane-protocol/3jane-contracts/internal/deploy"
	"github.com/3jane-protocol/3jane-contracts/internal/domain"
	"github.com/3jane-protocol/3jane-contracts/internal/vault"
	"github.com/3jane-protocol/3jane-contracts/internal/verify"
)

// Deployer is the part of deploy.Deployer the procedures use.
type Deployer interface {
	From() common.Address
	Artifact(name string) (*artifact.Artifact, error)
	Deploy(ctx context.Context, name string, opts deploy.Options) (deploy.Result, error)
	DeployProxy(ctx context.Context, name string, logic, admin common.Address, initData []byte) (deploy.Result, error)
	Get(name string) (domain.Deployment, error)
	Execute(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error)
	Call(ctx context.Context, to common.Address, fn *w3.Func, args []any, returns ...any) error
}

// BuildInfos finds the compiler input behind an artifact.
type BuildInfos interface {
	BuildInfo(a *artifact.Artifact) (*artifact.BuildInfo, error)
}

var _ Deployer = (*deploy.Deployer)(nil)

// Params are the tunables the procedures pass to contracts.
type Params struct {
	// AMPLOL is the last constructor argument of the swap vault logic, as
	// the contract's ABI type expects it (address or integer string).
	AMPLOL string `toml:"amplol"`
	// EthenaSwapSlippage is the Ethena deposit helper's slippage bound.
	EthenaSwapSlippage int64 `toml:"ethena_swap_slippage"`
	// ManagementFee and PerformanceFee carry 6 decimals, so 2000000 is 2%.
	ManagementFee   int64 `toml:"management_fee"`
	PerformanceFee  int64 `toml:"performance_fee"`
	PremiumDiscount int64 `toml:"premium_discount"`
	// Period is the vault round length in days.
	Period uint32 `toml:"period"`
}

// DefaultParams returns the values the vaults were launched with.
func DefaultParams() Params {
	return Params{
		EthenaSwapSlippage: 98,
		ManagementFee:      2_000_000,
		PerformanceFee:     10_000_000,
		PremiumDiscount:    800,
		Period:             7,
	}
}

// Env is everything a procedure may touch.
type Env struct {
	Deployer   Deployer
	BuildInfos BuildInfos
	Verifier   domain.Verifier // nil skips verification
	Book       *chain.Book
	ChainID    domain.ChainID
	Network    string // display name for banners
	Accounts   domain.NamedAccounts
	Params     Params
	Log        *zap.Logger
}

func (e *Env) lookup(symbol string) (common.Address, error) {
	return e.Book.Lookup(symbol, e.ChainID)
}

func (e *Env) banner(id int, what string) {
	e.Log.Info(fmt.Sprintf("%d - Deploying %s on %s", id, what, e.Network))
}

func (e *Env) deployed(label string, addr common.Address) {
	e.Log.Info(fmt.Sprintf("%s @ %s", label, addr.Hex()))
}

// verify submits rec for verification. Failures, including a missing build
// info, are logged and ignored.
func (e *Env) verify(ctx context.Context, rec domain.Deployment) {
	art, err := e.Deployer.Artifact(rec.Contract)
	if err != nil {
		e.Log.Warn("verification skipped", zap.String("name", rec.Name), zap.Error(err))
		return
	}
	if e.BuildInfos == nil {
		e.Log.Warn("verification skipped", zap.String("name", rec.Name), zap.Error(errors.New("no build info source")))
		return
	}
	info, err := e.BuildInfos.BuildInfo(art)
	if err != nil {
		e.Log.Warn("verification skipped", zap.String("name", rec.Name), zap.Error(err))
		return
	}
	input, err := info.LinkedInput(art, rec.Libraries)
	if err != nil {
		e.Log.Warn("verification skipped", zap.String("name", rec.Name), zap.Error(err))
		return
	}
	verify.TryVerify(ctx, e.Verifier, e.Log, domain.VerifyRequest{
		Address:         rec.Address,
		ContractName:    art.FullyQualifiedName(),
		CompilerVersion: info.SolcLongVersion,
		StandardJSON:    input,
		ConstructorArgs: rec.ArgsData,
	})
}

func wei(n int64, decimals uint) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), vault.Pow10(decimals))
}
