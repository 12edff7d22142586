package interfaces

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// AccountService creates, imports and unlocks the deployer account.
type AccountService interface {
	GenerateAccount(passphrase string) (common.Address, error)
	ImportAccount(passphrase, hexKey string) (common.Address, error)
	UnlockAccount(passphrase string) (*ecdsa.PrivateKey, error)
}
