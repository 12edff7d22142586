package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/artifact"
	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

// ProxyContract is the artifact DeployProxy deploys.
const ProxyContract = "AdminUpgradeabilityProxy"

// ErrReverted is returned when a mined transaction has status 0.
var ErrReverted = errors.New("transaction reverted")

// Artifacts resolves contract names to compiled artifacts.
type Artifacts interface {
	Load(name string) (*artifact.Artifact, error)
}

// Options describes one deployment.
type Options struct {
	// Contract is the artifact to deploy. Empty means the deployment name.
	Contract  string
	Args      []any
	Libraries map[string]common.Address
}

// Result is a deployment record and whether this run created it.
type Result struct {
	domain.Deployment
	Newly bool
}

// Deployer deploys named contracts once and remembers them.
type Deployer struct {
	backend   Backend
	store     domain.DeploymentStore
	artifacts Artifacts
	log       *zap.Logger
	now       func() time.Time
}

// New returns a Deployer.
func New(backend Backend, store domain.DeploymentStore, artifacts Artifacts, log *zap.Logger) *Deployer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deployer{backend: backend, store: store, artifacts: artifacts, log: log, now: time.Now}
}

// From returns the sending account.
func (d *Deployer) From() common.Address { return d.backend.From() }

// Artifact loads a compiled artifact by name.
func (d *Deployer) Artifact(name string) (*artifact.Artifact, error) {
	return d.artifacts.Load(name)
}

// Deploy deploys opts under name. An existing record is reused when the
// linked bytecode and constructor arguments are unchanged and the address
// still holds code.
func (d *Deployer) Deploy(ctx context.Context, name string, opts Options) (Result, error) {
	contract := opts.Contract
	if contract == "" {
		contract = name
	}
	art, err := d.artifacts.Load(contract)
	if err != nil {
		return Result{}, fmt.Errorf("deploy %s: %w", name, err)
	}
	data, ctorArgs, codeHash, err := art.DeployData(opts.Libraries, opts.Args...)
	if err != nil {
		return Result{}, fmt.Errorf("deploy %s: %w", name, err)
	}

	prev, ok, err := d.store.LoadDeployment(name)
	if err != nil {
		return Result{}, err
	}
	if ok && prev.BytecodeHash == codeHash && bytes.Equal(prev.ArgsData, ctorArgs) {
		code, err := d.backend.Code(ctx, prev.Address)
		if err != nil {
			return Result{}, err
		}
		if len(code) > 0 {
			d.log.Info("reusing", zap.String("name", name), zap.Stringer("address", prev.Address))
			return Result{Deployment: prev}, nil
		}
	}

	d.log.Info("deploying", zap.String("name", name), zap.String("contract", art.ContractName),
		zap.Stringer("from", d.backend.From()))
	rcpt, err := d.backend.Send(ctx, nil, data, nil)
	if err != nil {
		return Result{}, fmt.Errorf("deploy %s: %w", name, err)
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return Result{}, fmt.Errorf("deploy %s: %w (tx %s)", name, ErrReverted, rcpt.TxHash)
	}

	rec := domain.Deployment{
		Name:         name,
		Contract:     art.ContractName,
		Address:      rcpt.ContractAddress,
		TxHash:       rcpt.TxHash,
		BytecodeHash: codeHash,
		Args:         formatArgs(opts.Args),
		ArgsData:     ctorArgs,
		Libraries:    opts.Libraries,
		ABI:          art.RawABI,
		DeployedAt:   d.now().UTC(),
	}
	if rcpt.BlockNumber != nil {
		rec.BlockNumber = rcpt.BlockNumber.Uint64()
	}
	if err := d.store.SaveDeployment(rec); err != nil {
		return Result{}, fmt.Errorf("save %s: %w", name, err)
	}
	d.log.Info("deployed", zap.String("name", name), zap.Stringer("address", rec.Address),
		zap.Stringer("tx", rec.TxHash), zap.Uint64("gas", rcpt.GasUsed))
	return Result{Deployment: rec, Newly: true}, nil
}

// DeployProxy deploys an AdminUpgradeabilityProxy under name pointing at
// logic, administered by admin and initialised with initData.
func (d *Deployer) DeployProxy(ctx context.Context, name string, logic, admin common.Address, initData []byte) (Result, error) {
	return d.Deploy(ctx, name, Options{
		Contract: ProxyContract,
		Args:     []any{logic, admin, initData},
	})
}

// Get returns the stored record for name.
func (d *Deployer) Get(name string) (domain.Deployment, error) {
	rec, ok, err := d.store.LoadDeployment(name)
	if err != nil {
		return domain.Deployment{}, err
	}
	if !ok {
		return domain.Deployment{}, fmt.Errorf("%w: %s", domain.ErrDeploymentNotFound, name)
	}
	return rec, nil
}

// Execute sends calldata to to and waits for it to be mined.
func (d *Deployer) Execute(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	rcpt, err := d.backend.Send(ctx, &to, data, nil)
	if err != nil {
		return nil, err
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return rcpt, fmt.Errorf("%w: tx %s to %s", ErrReverted, rcpt.TxHash, to)
	}
	d.log.Debug("executed", zap.Stringer("to", to), zap.Stringer("tx", rcpt.TxHash))
	return rcpt, nil
}

// Call runs fn read-only against to and decodes its returns.
func (d *Deployer) Call(ctx context.Context, to common.Address, fn *w3.Func, args []any, returns ...any) error {
	input, err := fn.EncodeArgs(args...)
	if err != nil {
		return err
	}
	out, err := d.backend.Call(ctx, to, input)
	if err != nil {
		return err
	}
	return fn.DecodeReturns(out, returns...)
}

func formatArgs(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case []byte:
			out[i] = fmt.Sprintf("0x%x", v)
		case [32]byte:
			out[i] = fmt.Sprintf("0x%x", v[:])
		case *big.Int:
			out[i] = v.String()
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
