package scripts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/lmittmann/w3"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/artifact"
	"github.com/3jane-protocol/3jane-contracts/internal/chain"
	"github.com/3jane-protocol/3jane-contracts/internal/deploy"
	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

var (
	funcGetOptionID = w3.MustNewFunc("getOptionId(uint256,address,address,bool)", "bytes32")
	funcNewVault    = w3.MustNewFunc("newVault(address,uint8)", "")
)

// PricerArtifact is compiled outside this repository with solc 0.7.3 and
// cannot be verified from here.
const PricerArtifact = "OptionsPremiumPricerInStables"

// SUSDEThetaVaultSwap deploys the sUSDe put Theta Vault: its premium pricer,
// strike selection and the proxy initialised against the swap vault logic.
// The new vault is announced to the deployment event emitter.
func SUSDEThetaVaultSwap() Script {
	return Script{
		ID:   "34_susde_theta_vault_swap",
		Tags: []string{"RibbonThetaVaultSUSDEPutWithSwap"},
		Run:  runSUSDEThetaVaultSwap,
	}
}

func runSUSDEThetaVaultSwap(ctx context.Context, env *Env) error {
	env.banner(34, "sUSDe Put Theta Vault With Swap")

	volOracle, err := env.Deployer.Get("ManualVolOracle")
	if err != nil {
		return err
	}
	emitter, err := env.Deployer.Get("VaultDeploymentEventEmitter")
	if err != nil {
		return err
	}
	weth, err := env.lookup("WETH")
	if err != nil {
		return err
	}
	susde, err := env.lookup("SUSDE")
	if err != nil {
		return err
	}
	underlyingOracle, err := env.lookup("ETH_PRICE_ORACLE")
	if err != nil {
		return err
	}
	stablesOracle, err := env.lookup("USDC_PRICE_ORACLE")
	if err != nil {
		return err
	}
	delta, err := chain.DeltaStep("WETH", env.ChainID)
	if err != nil {
		return err
	}

	var optionID [32]byte
	err = env.Deployer.Call(ctx, volOracle.Address, funcGetOptionID,
		[]any{new(big.Int).SetUint64(delta), weth, weth, true}, &optionID)
	if err != nil {
		return fmt.Errorf("option id: %w", err)
	}

	pricer, err := env.Deployer.Deploy(ctx, "OptionsPremiumPricerETHWithSwap", deploy.Options{
		Contract: PricerArtifact,
		Args:     []any{optionID, volOracle.Address, underlyingOracle, stablesOracle},
	})
	if err != nil {
		return err
	}
	env.deployed("RibbonThetaVaultETHPut pricer", pricer.Address)

	strikeSelection, err := env.Deployer.Deploy(ctx, "ManualStrikeSelectionETHPut", deploy.Options{
		Contract: "ManualStrikeSelection",
	})
	if err != nil {
		return err
	}
	env.deployed("RibbonThetaVaultSUSDEPut strikeSelection", strikeSelection.Address)
	env.verify(ctx, strikeSelection.Deployment)

	logic, err := env.Deployer.Get("RibbonThetaVaultWithSwapLogic")
	if err != nil {
		return err
	}
	if _, err := env.Deployer.Get("VaultLifecycleWithSwap"); err != nil {
		return err
	}
	vaultArtifact, err := env.Deployer.Artifact("RibbonThetaVaultWithSwap")
	if err != nil {
		return err
	}
	p := env.Params
	initData, err := vaultArtifact.Pack("initialize",
		artifact.Tuple{
			"_owner":                env.Accounts.Owner,
			"_keeper":               env.Accounts.Keeper,
			"_feeRecipient":         env.Accounts.FeeRecipient,
			"_period":               p.Period,
			"_managementFee":        p.ManagementFee,
			"_performanceFee":       p.PerformanceFee,
			"_tokenName":            "Ribbon sUSDe Theta Vault",
			"_tokenSymbol":          "rsUSDe-THETA",
			"_optionsPremiumPricer": pricer.Address,
			"_strikeSelection":      strikeSelection.Address,
			"_premiumDiscount":      p.PremiumDiscount,
		},
		artifact.Tuple{
			"isPut":         true,
			"decimals":      18,
			"asset":         susde,
			"underlying":    weth,
			"minimumSupply": wei(1, 10),
			"cap":           wei(10_000_000, 18),
		},
	)
	if err != nil {
		return err
	}

	proxy, err := env.Deployer.DeployProxy(ctx, "RibbonThetaVaultSUSDEPutWithSwap", logic.Address, env.Accounts.Admin, initData)
	if err != nil {
		return err
	}
	if proxy.Newly {
		data, err := funcNewVault.EncodeArgs(proxy.Address, uint8(domain.VaultTypeNormal))
		if err != nil {
			return err
		}
		if _, err := env.Deployer.Execute(ctx, emitter.Address, data); err != nil {
			return fmt.Errorf("announce vault: %w", err)
		}
		env.Log.Debug("vault announced", zap.Stringer("type", domain.VaultTypeNormal))
	}
	env.deployed("RibbonThetaVaultSUSDEPutWithSwap", proxy.Address)
	env.verify(ctx, proxy.Deployment)
	return nil
}
