package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// KeyRecord is the plaintext form of the deployer key sealed in the keystore.
type KeyRecord struct {
	Address    common.Address `json:"address"`
	PrivateKey hexutil.Bytes  `json:"private_key"`
}

// NamedAccounts are the roles a deployment procedure hands to contracts.
type NamedAccounts struct {
	Deployer     common.Address `json:"deployer"`
	Owner        common.Address `json:"owner"`
	Keeper       common.Address `json:"keeper"`
	Admin        common.Address `json:"admin"`
	FeeRecipient common.Address `json:"fee_recipient"`
}
