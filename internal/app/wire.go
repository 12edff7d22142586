package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/artifact"
	"github.com/3jane-protocol/3jane-contracts/internal/chain"
	"github.com/3jane-protocol/3jane-contracts/internal/crypto"
	"github.com/3jane-protocol/3jane-contracts/internal/deploy"
	"github.com/3jane-protocol/3jane-contracts/internal/domain"
	"github.com/3jane-protocol/3jane-contracts/internal/quote"
	"github.com/3jane-protocol/3jane-contracts/internal/scripts"
	accountsvc "github.com/3jane-protocol/3jane-contracts/internal/services/account"
	"github.com/3jane-protocol/3jane-contracts/internal/store"
	"github.com/3jane-protocol/3jane-contracts/internal/verify"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Network     Network
	ChainID     domain.ChainID
	Keys        domain.KeyStore
	Accounts    *accountsvc.Service
	Deployments *store.DeploymentFileStore
	Artifacts   *artifact.Loader
	Book        *chain.Book
	Verifier    domain.Verifier // nil without an explorer API key
	Quoter      domain.Quoter
	HTTP        *http.Client
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, log *zap.Logger) (*Wire, error) {
	if log == nil {
		log = zap.NewNop()
	}
	network, err := cfg.Selected()
	if err != nil {
		return nil, err
	}
	id := domain.ChainID(network.ChainID)

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	keys := store.NewKeyFileStore(filepath.Join(cfg.Home, "keys"))

	var verifier domain.Verifier
	if cfg.EtherscanAPIKey != "" {
		e := verify.NewEtherscan(network.ExplorerAPI, cfg.EtherscanAPIKey, id, log.Named("verify"))
		e.HTTP = httpClient
		verifier = e
	}
	q := quote.NewOneInch("", cfg.OneInchKey, log.Named("quote"))
	q.HTTP = httpClient

	return &Wire{
		Network:     network,
		ChainID:     id,
		Keys:        keys,
		Accounts:    accountsvc.New(keys),
		Deployments: store.NewDeploymentFileStore(cfg.DeploymentsDir(), id),
		Artifacts:   artifact.NewLoader(cfg.Artifacts, cfg.ExternalArtifacts),
		Book:        chain.DefaultBook().With(id, cfg.Addresses),
		Verifier:    verifier,
		Quoter:      q,
		HTTP:        httpClient,
	}, nil
}

// Dial connects to the selected network's RPC endpoint.
func (w *Wire) Dial(ctx context.Context) (*w3.Client, error) {
	if w.Network.RPCURL == "" {
		return nil, fmt.Errorf("no rpc_url for chain %s", w.ChainID)
	}
	rc, err := rpc.DialOptions(ctx, w.Network.RPCURL, rpc.WithHTTPClient(w.HTTP))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", w.Network.RPCURL, err)
	}
	return w3.NewClient(rc), nil
}

// ScriptEnv unlocks the deployer key and returns the environment the
// deployment procedures run in. Roles left unset in accounts fall back to
// the deployer.
func (w *Wire) ScriptEnv(ctx context.Context, client *w3.Client, passphrase string, accounts domain.NamedAccounts, params scripts.Params, log *zap.Logger) (*scripts.Env, error) {
	if log == nil {
		log = zap.NewNop()
	}
	key, err := w.Accounts.UnlockAccount(passphrase)
	if err != nil {
		return nil, err
	}
	backend := deploy.NewW3Backend(client, key, uint64(w.ChainID))
	if err := backend.CheckChainID(ctx); err != nil {
		return nil, err
	}
	name, err := chain.NetworkName(w.ChainID)
	if err != nil {
		name = w.ChainID.String()
	}

	from := crypto.Address(key)
	accounts.Deployer = from
	for role, addr := range map[string]*common.Address{
		"owner":         &accounts.Owner,
		"keeper":        &accounts.Keeper,
		"admin":         &accounts.Admin,
		"fee_recipient": &accounts.FeeRecipient,
	} {
		if *addr == (common.Address{}) {
			log.Warn("account role unset, using deployer", zap.String("role", role), zap.Stringer("deployer", from))
			*addr = from
		}
	}

	return &scripts.Env{
		Deployer:   deploy.New(backend, w.Deployments, w.Artifacts, log.Named("deploy")),
		BuildInfos: w.Artifacts,
		Verifier:   w.Verifier,
		Book:       w.Book,
		ChainID:    w.ChainID,
		Network:    name,
		Accounts:   accounts,
		Params:     params,
		Log:        log,
	}, nil
}
