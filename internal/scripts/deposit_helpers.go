package scripts

import (
	"context"

	"github.com/3jane-protocol/3jane-contracts/internal/chain"
	"github.com/3jane-protocol/3jane-contracts/internal/deploy"
)

// EtherfiDepositHelper deploys EtherfiDepositHelper<Network> in front of the
// weETH call vault.
func EtherfiDepositHelper() Script {
	return Script{
		ID:   "35_etherfi_deposit_helper",
		Tags: []string{"EtherfiDepositHelper"},
		Run: func(ctx context.Context, env *Env) error {
			env.banner(35, "EtherFi Deposit Helper")
			return deployHelper(ctx, env, "EtherfiDepositHelper", "RibbonThetaVaultWEETHCallWithSwap")
		},
	}
}

// EthenaDepositHelper deploys EthenaDepositHelper<Network> in front of the
// sUSDe put vault.
func EthenaDepositHelper() Script {
	return Script{
		ID:   "36_ethena_deposit_helper",
		Tags: []string{"EthenaDepositHelper"},
		Run: func(ctx context.Context, env *Env) error {
			env.banner(36, "Ethena Deposit Helper")
			return deployHelper(ctx, env, "EthenaDepositHelper", "RibbonThetaVaultSUSDEPutWithSwap", env.Params.EthenaSwapSlippage)
		},
	}
}

// deployHelper deploys contract under a per-network name with the vault
// deployment as first constructor argument, then extra.
func deployHelper(ctx context.Context, env *Env, contract, vaultName string, extra ...any) error {
	network, err := chain.NetworkName(env.ChainID)
	if err != nil {
		return err
	}
	vault, err := env.Deployer.Get(vaultName)
	if err != nil {
		return err
	}
	name := contract + network
	helper, err := env.Deployer.Deploy(ctx, name, deploy.Options{
		Contract: contract,
		Args:     append([]any{vault.Address}, extra...),
	})
	if err != nil {
		return err
	}
	env.deployed(name, helper.Address)
	env.verify(ctx, helper.Deployment)
	return nil
}
