package commands

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// resolveAddress accepts a hex address or an address book symbol on the
// selected network.
func resolveAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	return appCtx.Book.Lookup(strings.ToUpper(s), appCtx.ChainID)
}

func parseBig(name, s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.ReplaceAll(s, "_", ""), 0)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("--%s: invalid amount %q", name, s)
	}
	return n, nil
}
