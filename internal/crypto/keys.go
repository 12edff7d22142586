package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

// ErrKeyMismatch is returned when a sealed key does not match its recorded address.
var ErrKeyMismatch = errors.New("key does not match recorded address")

// GenerateKey returns a fresh secp256k1 key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return gethcrypto.GenerateKey()
}

// ParseKey parses a hex private key, with or without 0x.
func ParseKey(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	key, err := gethcrypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// MustParseKey is ParseKey for fixed test keys.
func MustParseKey(s string) *ecdsa.PrivateKey {
	key, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return key
}

// Address returns the account address controlled by key.
func Address(key *ecdsa.PrivateKey) common.Address {
	return gethcrypto.PubkeyToAddress(key.PublicKey)
}

// KeyRecord converts key into its storable form.
func KeyRecord(key *ecdsa.PrivateKey) domain.KeyRecord {
	return domain.KeyRecord{
		Address:    Address(key),
		PrivateKey: gethcrypto.FromECDSA(key),
	}
}

// Unlock rebuilds the key from rec, wiping rec's raw bytes.
func Unlock(rec domain.KeyRecord) (*ecdsa.PrivateKey, error) {
	defer Wipe(rec.PrivateKey)

	key, err := gethcrypto.ToECDSA(rec.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if Address(key) != rec.Address {
		return nil, ErrKeyMismatch
	}
	return key, nil
}
