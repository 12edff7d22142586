package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

// DefaultForkBlock is the block integration tests fork at unless the asset
// needs an older state.
const DefaultForkBlock uint64 = 19672061

// Blocks the deposit helper suites fork at; their expected outputs are
// pinned to these states.
const (
	ForkBlockEthena  uint64 = 19572557
	ForkBlockEtherFi uint64 = 19594142
)

var forkBlocks = map[string]uint64{
	"PERP":   14087600,
	"BAL":    15012740,
	"SPELL":  15140525,
	"UNI":    16000050,
	"BADGER": 15012740,
	"WBTC":   15012740,
}

// ForkBlock returns the pinned block to fork at for tests against asset.
func (b *Book) ForkBlock(asset common.Address, id domain.ChainID) uint64 {
	sym, ok := b.Symbol(asset, id)
	if !ok {
		return DefaultForkBlock
	}
	if n, ok := forkBlocks[sym]; ok {
		return n
	}
	return DefaultForkBlock
}

// DeltaStep returns the strike-selection delta step for an asset symbol.
func DeltaStep(symbol string, id domain.ChainID) (uint64, error) {
	switch symbol {
	case "WBTC":
		return 1000, nil
	case "AAVE":
		return 10, nil
	case "SAVAX", "APE":
		return 5, nil
	case "SUSHI", "UNI":
		return 1, nil
	case "BAL", "SPELL", "BADGER":
		return 0, nil
	case "WETH":
		if id == AvaxMainnet {
			return 3, nil
		}
		return 100, nil
	}
	return 0, fmt.Errorf("delta step not found for asset: %s", symbol)
}

// PremiumPricerOracle returns the underlying price feed a premium pricer for
// asset should read.
func (b *Book) PremiumPricerOracle(asset common.Address, id domain.ChainID) (common.Address, error) {
	switch sym, _ := b.Symbol(asset, id); sym {
	case "WETH":
		return b.Lookup("ETH_PRICE_ORACLE", id)
	case "UNI":
		return b.Lookup("UNI_PRICE_ORACLE", id)
	default:
		return b.Lookup("BTC_PRICE_ORACLE", id)
	}
}

// OptionProtocol selects which options protocol deployment a vault uses.
type OptionProtocol int

const (
	Gamma OptionProtocol = iota
	TD
)

// String returns the protocol symbol prefix.
func (p OptionProtocol) String() string {
	switch p {
	case Gamma:
		return "GAMMA"
	case TD:
		return "TD"
	}
	return fmt.Sprintf("OptionProtocol(%d)", int(p))
}

// ProtocolAddresses are the contracts of one options protocol deployment.
type ProtocolAddresses struct {
	Controller    common.Address
	OTokenFactory common.Address
	MarginPool    common.Address
	OracleOwner   common.Address
}

// Protocol returns the controller, oToken factory, margin pool and oracle
// owner of protocol p on chain id.
func (b *Book) Protocol(p OptionProtocol, id domain.ChainID) (ProtocolAddresses, error) {
	var keys [4]string
	switch p {
	case Gamma:
		keys = [4]string{"GAMMA_CONTROLLER", "OTOKEN_FACTORY", "MARGIN_POOL", "ORACLE_OWNER"}
	case TD:
		keys = [4]string{"TD_CONTROLLER", "TD_OTOKEN_FACTORY", "TD_MARGIN_POOL", "TD_ORACLE_OWNER"}
	default:
		return ProtocolAddresses{}, fmt.Errorf("protocol not found: %v", p)
	}
	var out [4]common.Address
	for i, k := range keys {
		addr, err := b.Lookup(k, id)
		if err != nil {
			return ProtocolAddresses{}, err
		}
		out[i] = addr
	}
	return ProtocolAddresses{
		Controller:    out[0],
		OTokenFactory: out[1],
		MarginPool:    out[2],
		OracleOwner:   out[3],
	}, nil
}

// IsBridgeToken reports whether token is an Avalanche bridge token, which
// mints through a five-argument mint.
func (b *Book) IsBridgeToken(id domain.ChainID, token common.Address) bool {
	if id != AvaxMainnet {
		return false
	}
	sym, _ := b.Symbol(token, id)
	return sym == "WBTC" || sym == "USDC"
}

// transferFunded are tokens whose owners cannot mint, so tests fund
// recipients by transferring from a holder instead.
var transferFunded = map[string]bool{
	"USDC": true, "SAVAX": true, "APE": true, "BADGER": true, "BAL": true,
	"SPELL": true, "RETH": true, "UNI": true, "WEETH": true,
}

// IsTransferFunded reports whether token is funded by transfer rather than mint.
func (b *Book) IsTransferFunded(id domain.ChainID, token common.Address) bool {
	sym, ok := b.Symbol(token, id)
	return ok && transferFunded[sym]
}
