package vault

import (
	"errors"
	"math/big"
)

// WAD is 1e18, the fixed-point unit for premiums and prices.
var WAD = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var halfWAD = new(big.Int).Rsh(WAD, 1)

// Pow10 returns 10^n.
func Pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(uint64(n)), nil)
}

// WMul multiplies two WAD values, rounding half up.
func WMul(x, y *big.Int) *big.Int {
	out := new(big.Int).Mul(x, y)
	out.Add(out, halfWAD)
	return out.Quo(out, WAD)
}

// SharesToAsset converts vault shares to asset units at pricePerShare, where
// both share and asset amounts use decimals.
func SharesToAsset(shares, pricePerShare *big.Int, decimals uint8) *big.Int {
	out := new(big.Int).Mul(shares, pricePerShare)
	return out.Quo(out, Pow10(uint(decimals)))
}

// LockedBalanceForRollover splits a vault's total balance into the part that
// will be locked at the next round and the part owed to queued withdrawals.
func LockedBalanceForRollover(totalBalance, pricePerShare, queuedShares *big.Int, decimals uint8) (locked, queued *big.Int, err error) {
	queued = SharesToAsset(queuedShares, pricePerShare, decimals)
	if queued.Cmp(totalBalance) > 0 {
		return nil, nil, errors.New("queued withdrawals exceed vault balance")
	}
	return new(big.Int).Sub(totalBalance, queued), queued, nil
}
