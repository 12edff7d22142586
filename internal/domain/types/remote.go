package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// VerifyRequest carries everything a block explorer needs to match deployed
// bytecode against source.
type VerifyRequest struct {
	Address         common.Address
	ContractName    string // fully qualified, e.g. contracts/vaults/Foo.sol:Foo
	CompilerVersion string // solc long version without the leading v
	StandardJSON    []byte // solc standard JSON input
	ConstructorArgs []byte // ABI-encoded, without selector
}

// SwapRequest asks an aggregator for calldata swapping Amount of Src to Dst.
type SwapRequest struct {
	ChainID         ChainID
	Src             common.Address
	Dst             common.Address
	From            common.Address
	Amount          *big.Int
	Slippage        float64 // percent, e.g. 1 for 1%
	DisableEstimate bool
}

// SwapQuote is the aggregator's answer to a SwapRequest.
type SwapQuote struct {
	DstAmount *big.Int
	To        common.Address
	Data      []byte
	Value     *big.Int
	Gas       uint64
}
