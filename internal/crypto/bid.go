package crypto

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

// Swap contract EIP-712 domain constants.
const (
	SwapDomainName    = "3JANE SWAP"
	SwapDomainVersion = "1"
)

var bidType = []apitypes.Type{
	{Name: "swapId", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "signerWallet", Type: "address"},
	{Name: "buyer", Type: "address"},
	{Name: "sellAmount", Type: "uint256"},
	{Name: "buyAmount", Type: "uint256"},
	{Name: "referrer", Type: "address"},
}

// BidTypedData builds the payload the swap contract at swap verifies.
func BidTypedData(chainID *big.Int, swap common.Address, bid domain.Bid) apitypes.TypedData {
	d := Domain{Name: SwapDomainName, Version: SwapDomainVersion, ChainID: chainID, VerifyingContract: swap}
	return d.TypedData("Bid", bidType, apitypes.TypedDataMessage{
		"swapId":       uint256Value(bid.SwapID),
		"nonce":        uint256Value(bid.Nonce),
		"signerWallet": bid.SignerWallet.Hex(),
		"buyer":        bid.Buyer.Hex(),
		"sellAmount":   uint256Value(bid.SellAmount),
		"buyAmount":    uint256Value(bid.BuyAmount),
		"referrer":     bid.Referrer.Hex(),
	})
}

// SignBid signs bid with key. The swap contract rejects the bid unless key
// controls bid.SignerWallet.
func SignBid(key *ecdsa.PrivateKey, chainID *big.Int, swap common.Address, bid domain.Bid) (domain.SignedBid, error) {
	sig, err := SignTypedData(key, BidTypedData(chainID, swap, bid))
	if err != nil {
		return domain.SignedBid{}, err
	}
	return domain.SignedBid{Bid: bid, Signature: sig}, nil
}
