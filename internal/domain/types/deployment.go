package types

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Deployment is the persisted record of a contract deployed under a name.
//
// Name is the deployment name (e.g. EthenaDepositHelperMainnet) and Contract
// the artifact it was built from (e.g. EthenaDepositHelper). ArgsData holds
// the ABI-encoded constructor arguments, which is also what block explorers
// expect when verifying.
type Deployment struct {
	Name         string                    `json:"name"`
	Contract     string                    `json:"contract"`
	Address      common.Address            `json:"address"`
	TxHash       common.Hash               `json:"transactionHash"`
	BlockNumber  uint64                    `json:"blockNumber"`
	Args         []string                  `json:"args,omitempty"`
	ArgsData     hexutil.Bytes             `json:"argsData,omitempty"`
	BytecodeHash common.Hash               `json:"bytecodeHash"`
	Libraries    map[string]common.Address `json:"libraries,omitempty"`
	ABI          json.RawMessage           `json:"abi,omitempty"`
	DeployedAt   time.Time                 `json:"deployedAt"`
}
