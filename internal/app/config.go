package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
	"github.com/3jane-protocol/3jane-contracts/internal/scripts"
)

// Environment variables read by LoadEnv.
const (
	EnvEtherscanKey = "ETHERSCAN_API_KEY"
	EnvOneInchKey   = "ONE_INCH_KEY"
	EnvPassphrase   = "THETAOPS_PASSPHRASE"
	EnvRPCURL       = "RPC_URL"
)

// Network is one chain the tool can talk to.
type Network struct {
	RPCURL      string `toml:"rpc_url"`
	ChainID     uint64 `toml:"chain_id"`
	ExplorerAPI string `toml:"explorer_api"`
}

// Config holds runtime wiring options for building the app.
type Config struct {
	Home              string // state directory, e.g. $HOME/.thetaops
	Network           string // selected key of Networks
	Networks          map[string]Network
	Artifacts         string // Hardhat artifacts directory
	ExternalArtifacts string // artifacts compiled elsewhere
	Accounts          domain.NamedAccounts
	Addresses         map[string]common.Address // address book overrides for the selected network
	Params            scripts.Params

	// Secrets, from the environment only.
	EtherscanAPIKey string
	OneInchKey      string
	Passphrase      string

	HTTP *http.Client // optional; defaults to http.DefaultClient
}

// DefaultConfig returns the built-in networks and parameters rooted at home.
func DefaultConfig(home string) Config {
	return Config{
		Home:    home,
		Network: "mainnet",
		Networks: map[string]Network{
			"mainnet":   {ChainID: 1},
			"sepolia":   {ChainID: 11155111},
			"avax":      {ChainID: 43114},
			"fuji":      {ChainID: 43113},
			"localhost": {ChainID: 1, RPCURL: "http://127.0.0.1:8545"},
		},
		Artifacts:         "artifacts",
		ExternalArtifacts: "constants/artifacts",
		Params:            scripts.DefaultParams(),
	}
}

// Selected returns the selected network.
func (c Config) Selected() (Network, error) {
	n, ok := c.Networks[c.Network]
	if !ok {
		names := make([]string, 0, len(c.Networks))
		for name := range c.Networks {
			names = append(names, name)
		}
		sort.Strings(names)
		return Network{}, fmt.Errorf("unknown network %q (have %s)", c.Network, strings.Join(names, ", "))
	}
	if n.ChainID == 0 {
		return Network{}, fmt.Errorf("network %q has no chain_id", c.Network)
	}
	return n, nil
}

// DeploymentsDir is where records for the selected network live.
func (c Config) DeploymentsDir() string {
	return filepath.Join(c.Home, "deployments", c.Network)
}

type fileConfig struct {
	Network           string             `toml:"network"`
	Artifacts         string             `toml:"artifacts"`
	ExternalArtifacts string             `toml:"external_artifacts"`
	Networks          map[string]Network `toml:"networks"`
	Accounts          map[string]string  `toml:"accounts"`
	Addresses         map[string]string  `toml:"addresses"`
	Params            scripts.Params     `toml:"params"`
}

// LoadFile overlays the TOML file at path onto cfg. Keys absent from the
// file keep their value in cfg.
func LoadFile(path string, cfg Config) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %s", undecoded[0])
	}

	if meta.IsDefined("network") {
		cfg.Network = strings.TrimSpace(raw.Network)
	}
	if meta.IsDefined("artifacts") {
		cfg.Artifacts = raw.Artifacts
	}
	if meta.IsDefined("external_artifacts") {
		cfg.ExternalArtifacts = raw.ExternalArtifacts
	}
	if len(raw.Networks) > 0 {
		merged := make(map[string]Network, len(cfg.Networks)+len(raw.Networks))
		for name, n := range cfg.Networks {
			merged[name] = n
		}
		for name, n := range raw.Networks {
			base := merged[name]
			if meta.IsDefined("networks", name, "rpc_url") {
				base.RPCURL = n.RPCURL
			}
			if meta.IsDefined("networks", name, "chain_id") {
				base.ChainID = n.ChainID
			}
			if meta.IsDefined("networks", name, "explorer_api") {
				base.ExplorerAPI = n.ExplorerAPI
			}
			merged[name] = base
		}
		cfg.Networks = merged
	}

	for role, hex := range raw.Accounts {
		addr, err := parseAddress("accounts."+role, hex)
		if err != nil {
			return Config{}, err
		}
		switch role {
		case "deployer":
			cfg.Accounts.Deployer = addr
		case "owner":
			cfg.Accounts.Owner = addr
		case "keeper":
			cfg.Accounts.Keeper = addr
		case "admin":
			cfg.Accounts.Admin = addr
		case "fee_recipient":
			cfg.Accounts.FeeRecipient = addr
		default:
			return Config{}, fmt.Errorf("load config: unknown account role %q", role)
		}
	}
	if len(raw.Addresses) > 0 {
		cfg.Addresses = make(map[string]common.Address, len(raw.Addresses))
		for sym, hex := range raw.Addresses {
			addr, err := parseAddress("addresses."+sym, hex)
			if err != nil {
				return Config{}, err
			}
			cfg.Addresses[sym] = addr
		}
	}

	if meta.IsDefined("params", "amplol") {
		cfg.Params.AMPLOL = strings.TrimSpace(raw.Params.AMPLOL)
	}
	if meta.IsDefined("params", "ethena_swap_slippage") {
		cfg.Params.EthenaSwapSlippage = raw.Params.EthenaSwapSlippage
	}
	if meta.IsDefined("params", "management_fee") {
		cfg.Params.ManagementFee = raw.Params.ManagementFee
	}
	if meta.IsDefined("params", "performance_fee") {
		cfg.Params.PerformanceFee = raw.Params.PerformanceFee
	}
	if meta.IsDefined("params", "premium_discount") {
		cfg.Params.PremiumDiscount = raw.Params.PremiumDiscount
	}
	if meta.IsDefined("params", "period") {
		cfg.Params.Period = raw.Params.Period
	}
	return cfg, nil
}

func parseAddress(key, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("load config: %s: invalid address %q", key, s)
	}
	return common.HexToAddress(s), nil
}

// LoadEnv loads the dotenv files that exist, without overriding variables
// already set, then copies secrets and overrides from the environment into
// cfg.
func LoadEnv(cfg Config, files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	if v := os.Getenv(EnvEtherscanKey); v != "" {
		cfg.EtherscanAPIKey = v
	}
	if v := os.Getenv(EnvOneInchKey); v != "" {
		cfg.OneInchKey = v
	}
	if v := os.Getenv(EnvPassphrase); v != "" {
		cfg.Passphrase = v
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		n := cfg.Networks[cfg.Network]
		n.RPCURL = v
		networks := make(map[string]Network, len(cfg.Networks))
		for name, other := range cfg.Networks {
			networks[name] = other
		}
		networks[cfg.Network] = n
		cfg.Networks = networks
	}
	return cfg, nil
}
