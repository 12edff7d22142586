package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Signature is a secp256k1 signature split into the form contracts accept.
// V is 27 or 28.
type Signature struct {
	V uint8       `json:"v"`
	R common.Hash `json:"r"`
	S common.Hash `json:"s"`
}

// Bytes returns the 65-byte r || s || v encoding.
func (s Signature) Bytes() []byte {
	out := make([]byte, 0, 65)
	out = append(out, s.R[:]...)
	out = append(out, s.S[:]...)
	return append(out, s.V)
}

// Hex returns the 0x-prefixed r || s || v encoding.
func (s Signature) Hex() string { return hexutil.Encode(s.Bytes()) }

// Bid is an off-chain offer to buy options from a swap contract.
type Bid struct {
	SwapID       *big.Int       `json:"swapId"`
	Nonce        *big.Int       `json:"nonce"`
	SignerWallet common.Address `json:"signerWallet"`
	Buyer        common.Address `json:"buyer"`
	SellAmount   *big.Int       `json:"sellAmount"`
	BuyAmount    *big.Int       `json:"buyAmount"`
	Referrer     common.Address `json:"referrer"`
}

// SignedBid is a Bid together with the signature of its signer wallet.
type SignedBid struct {
	Bid
	Signature
}

// Permit is an EIP-2612 approval message.
type Permit struct {
	Owner    common.Address `json:"owner"`
	Spender  common.Address `json:"spender"`
	Value    *big.Int       `json:"value"`
	Nonce    *big.Int       `json:"nonce"`
	Deadline *big.Int       `json:"deadline"`
}
