package crypto

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

var permitType = []apitypes.Type{
	{Name: "owner", Type: "address"},
	{Name: "spender", Type: "address"},
	{Name: "value", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "deadline", Type: "uint256"},
}

// PermitConfig selects the token's EIP-712 domain and the owner's nonce.
// Zero fields fall back to USDC on mainnet with nonce 0.
type PermitConfig struct {
	Nonce   *big.Int
	Name    string
	Version string
	ChainID *big.Int
}

func (c PermitConfig) withDefaults() PermitConfig {
	if c.Nonce == nil {
		c.Nonce = new(big.Int)
	}
	if c.Name == "" {
		c.Name = "USD Coin"
	}
	if c.Version == "" {
		c.Version = "2"
	}
	if c.ChainID == nil {
		c.ChainID = big.NewInt(1)
	}
	return c
}

// PermitTypedData builds the EIP-2612 payload for p on token.
func PermitTypedData(token common.Address, p domain.Permit, cfg PermitConfig) apitypes.TypedData {
	cfg = cfg.withDefaults()
	if p.Nonce == nil {
		p.Nonce = cfg.Nonce
	}
	d := Domain{Name: cfg.Name, Version: cfg.Version, ChainID: cfg.ChainID, VerifyingContract: token}
	return d.TypedData("Permit", permitType, apitypes.TypedDataMessage{
		"owner":    p.Owner.Hex(),
		"spender":  p.Spender.Hex(),
		"value":    uint256Value(p.Value),
		"nonce":    uint256Value(p.Nonce),
		"deadline": uint256Value(p.Deadline),
	})
}

// SignPermit signs a permit letting spender pull value of token from the
// key's address until deadline.
func SignPermit(
	key *ecdsa.PrivateKey,
	token, spender common.Address,
	value, deadline *big.Int,
	cfg PermitConfig,
) (domain.Signature, error) {
	cfg = cfg.withDefaults()
	p := domain.Permit{
		Owner:    Address(key),
		Spender:  spender,
		Value:    value,
		Nonce:    cfg.Nonce,
		Deadline: deadline,
	}
	return SignTypedData(key, PermitTypedData(token, p, cfg))
}
