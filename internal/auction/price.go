package auction

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/3jane-protocol/3jane-contracts/internal/vault"
)

// oTokens carry 8 decimals; prices are quoted with 18.
const otokenScale = 10

// MinPriceE18 returns the initial order's minimum price per oToken with 18
// decimals: buy * 10^(36-decimals) / (sell * 10^10).
func MinPriceE18(initial Order, tokenDecimals uint8) (*big.Int, error) {
	if tokenDecimals > 36 {
		return nil, fmt.Errorf("token decimals %d out of range", tokenDecimals)
	}
	if initial.SellAmount == nil || initial.SellAmount.IsZero() {
		return nil, errors.New("initial order sells nothing")
	}
	buy := new(big.Int)
	if initial.BuyAmount != nil {
		buy = initial.BuyAmount.ToBig()
	}
	num := buy.Mul(buy, vault.Pow10(uint(36-tokenDecimals)))
	den := new(big.Int).Mul(initial.SellAmount.ToBig(), vault.Pow10(otokenScale))
	return num.Quo(num, den), nil
}

// OptionsAvailable returns how many options a bidder can buy from an auction
// holding balance oTokens, net of the auction fee and divided by multiplier.
func OptionsAvailable(balance, feeNumerator, feeDenominator, multiplier *big.Int) (*big.Int, error) {
	total := new(big.Int).Add(feeDenominator, feeNumerator)
	if total.Sign() == 0 {
		return nil, errors.New("zero fee denominator")
	}
	if multiplier.Sign() == 0 {
		return nil, errors.New("zero multiplier")
	}
	out := new(big.Int).Mul(balance, feeDenominator)
	out.Quo(out, total)
	return out.Quo(out, multiplier), nil
}

// BidAmount prices options at premium (18 decimals) and scales the result
// to the bidding asset's decimals.
func BidAmount(options, premium *big.Int, assetDecimals uint8) *big.Int {
	scaled := new(big.Int).Mul(options, vault.Pow10(otokenScale))
	bid := vault.WMul(scaled, premium)
	if assetDecimals > 18 {
		return bid.Mul(bid, vault.Pow10(uint(assetDecimals-18)))
	}
	return bid.Quo(bid, vault.Pow10(uint(18-assetDecimals)))
}
