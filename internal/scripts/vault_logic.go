package scripts

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/3jane-protocol/3jane-contracts/internal/deploy"
)

// ThetaVaultLogicSwap deploys the VaultLifecycleWithSwap library and the
// RibbonThetaVaultWithSwap logic contract linked against it.
func ThetaVaultLogicSwap() Script {
	return Script{
		ID:   "19_theta_vault_logic_swap",
		Tags: []string{"RibbonThetaVaultWithSwapLogic"},
		Run:  runThetaVaultLogicSwap,
	}
}

func runThetaVaultLogicSwap(ctx context.Context, env *Env) error {
	env.banner(19, "Theta Vault with Swap logic")
	if env.Params.AMPLOL == "" {
		return errors.New("amplol is not configured")
	}

	swap, err := env.Deployer.Get("Swap")
	if err != nil {
		return err
	}
	var protocol [3]common.Address
	for i, sym := range []string{"OTOKEN_FACTORY", "GAMMA_CONTROLLER", "MARGIN_POOL"} {
		if protocol[i], err = env.lookup(sym); err != nil {
			return err
		}
	}

	lifecycle, err := env.Deployer.Deploy(ctx, "VaultLifecycleWithSwap", deploy.Options{})
	if err != nil {
		return err
	}
	logic, err := env.Deployer.Deploy(ctx, "RibbonThetaVaultWithSwapLogic", deploy.Options{
		Contract:  "RibbonThetaVaultWithSwap",
		Args:      []any{protocol[0], protocol[1], protocol[2], swap.Address, env.Params.AMPLOL},
		Libraries: map[string]common.Address{"VaultLifecycleWithSwap": lifecycle.Address},
	})
	if err != nil {
		return fmt.Errorf("vault logic: %w", err)
	}
	env.deployed("RibbonThetaVaultWithSwapLogic", logic.Address)

	env.verify(ctx, lifecycle.Deployment)
	env.verify(ctx, logic.Deployment)
	return nil
}
