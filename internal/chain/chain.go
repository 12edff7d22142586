package chain

import (
	"errors"
	"fmt"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

// Supported networks.
const (
	EthMainnet  domain.ChainID = 1
	EthGoerli   domain.ChainID = 5
	EthKovan    domain.ChainID = 42
	AvaxMainnet domain.ChainID = 43114
	AvaxFuji    domain.ChainID = 43113
	EthSepolia  domain.ChainID = 11155111
)

// Oracle timing, in seconds.
const (
	OracleDisputePeriod = 7200
	OracleLockingPeriod = 300
)

// ErrUnknownChain is returned for chain ids outside the supported set.
var ErrUnknownChain = errors.New("unknown chain")

var networkNames = map[domain.ChainID]string{
	EthMainnet:  "Mainnet",
	EthGoerli:   "Goerli",
	EthKovan:    "Kovan",
	AvaxMainnet: "Avax",
	AvaxFuji:    "Fuji",
	EthSepolia:  "Sepolia",
}

// NetworkName returns the suffix used in per-network deployment names,
// e.g. "Mainnet" for EthenaDepositHelperMainnet.
func NetworkName(id domain.ChainID) (string, error) {
	name, ok := networkNames[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownChain, id)
	}
	return name, nil
}
