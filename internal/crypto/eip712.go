package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

// Domain is an EIP-712 signing domain with all four standard fields set.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

var domainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

func (d Domain) typed() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              d.Name,
		Version:           d.Version,
		ChainId:           uint256Value(d.ChainID),
		VerifyingContract: d.VerifyingContract.Hex(),
	}
}

// TypedData assembles a single-struct typed-data payload under d.
func (d Domain) TypedData(primary string, fields []apitypes.Type, msg apitypes.TypedDataMessage) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			primary:        fields,
		},
		PrimaryType: primary,
		Domain:      d.typed(),
		Message:     msg,
	}
}

// Digest returns keccak256("\x19\x01" || domainSeparator || hashStruct(message)).
func Digest(td apitypes.TypedData) ([]byte, error) {
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("hash typed data: %w", err)
	}
	return digest, nil
}

// SignTypedData signs the EIP-712 digest of td.
func SignTypedData(key *ecdsa.PrivateKey, td apitypes.TypedData) (domain.Signature, error) {
	digest, err := Digest(td)
	if err != nil {
		return domain.Signature{}, err
	}
	sig, err := gethcrypto.Sign(digest, key)
	if err != nil {
		return domain.Signature{}, fmt.Errorf("sign typed data: %w", err)
	}
	return SplitSignature(sig)
}

// SplitSignature splits a 65-byte r || s || v signature, accepting v as
// 0/1 or 27/28.
func SplitSignature(sig []byte) (domain.Signature, error) {
	if len(sig) != 65 {
		return domain.Signature{}, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	v := sig[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return domain.Signature{}, fmt.Errorf("invalid signature v %d", sig[64])
	}
	var out domain.Signature
	copy(out.R[:], sig[:32])
	copy(out.S[:], sig[32:64])
	out.V = v
	return out, nil
}

// Recover returns the address that produced sig over digest.
func Recover(digest []byte, sig domain.Signature) (common.Address, error) {
	if sig.V != 27 && sig.V != 28 {
		return common.Address{}, errors.New("signature v must be 27 or 28")
	}
	raw := sig.Bytes()
	raw[64] -= 27
	pub, err := gethcrypto.SigToPub(digest, raw)
	if err != nil {
		return common.Address{}, err
	}
	return gethcrypto.PubkeyToAddress(*pub), nil
}

func uint256Value(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}
