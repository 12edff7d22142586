package types

import "strconv"

// ChainID identifies an EVM network.
type ChainID uint64

// String returns the decimal form of the chain id.
func (id ChainID) String() string { return strconv.FormatUint(uint64(id), 10) }

// VaultType is the category announced to the vault deployment event emitter.
type VaultType uint8

const (
	VaultTypeNormal VaultType = iota
	VaultTypeEarn
	VaultTypeVIP
	VaultTypeTreasury
)

// String returns the lower-case vault type name.
func (t VaultType) String() string {
	switch t {
	case VaultTypeNormal:
		return "normal"
	case VaultTypeEarn:
		return "earn"
	case VaultTypeVIP:
		return "vip"
	case VaultTypeTreasury:
		return "treasury"
	}
	return "unknown"
}
