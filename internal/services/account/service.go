package account

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"unicode"

	"github.com/ethereum/go-ethereum/common"

	"github.com/3jane-protocol/3jane-contracts/internal/crypto"
	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
	// ErrKeyExists is returned when creating an account over an existing keystore.
	ErrKeyExists = errors.New("keystore already holds a key")
)

// Service manages the deployer key using a backing store.
type Service struct {
	store domain.KeyStore
	// Overwrite allows replacing an existing key.
	Overwrite bool
}

// New returns an account service backed by the given store.
func New(s domain.KeyStore) *Service { return &Service{store: s} }

// GenerateAccount creates a fresh key, seals it with passphrase and returns
// its address.
func (s *Service) GenerateAccount(passphrase string) (common.Address, error) {
	if err := s.precheck(passphrase); err != nil {
		return common.Address{}, err
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return common.Address{}, err
	}
	return s.save(passphrase, key)
}

// ImportAccount seals an existing hex private key with passphrase.
func (s *Service) ImportAccount(passphrase, hexKey string) (common.Address, error) {
	if err := s.precheck(passphrase); err != nil {
		return common.Address{}, err
	}
	key, err := crypto.ParseKey(hexKey)
	if err != nil {
		return common.Address{}, err
	}
	return s.save(passphrase, key)
}

// UnlockAccount decrypts the stored key.
func (s *Service) UnlockAccount(passphrase string) (*ecdsa.PrivateKey, error) {
	rec, err := s.store.LoadKey(passphrase)
	if err != nil {
		return nil, err
	}
	return crypto.Unlock(rec)
}

// Address returns the stored account address after unlocking it.
func (s *Service) Address(passphrase string) (common.Address, error) {
	key, err := s.UnlockAccount(passphrase)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.Address(key), nil
}

func (s *Service) precheck(passphrase string) error {
	if !isSecurePassphrase(passphrase) {
		return ErrWeakPassphrase
	}
	if s.Overwrite {
		return nil
	}
	has, err := s.store.HasKey()
	if err != nil {
		return err
	}
	if has {
		return ErrKeyExists
	}
	return nil
}

func (s *Service) save(passphrase string, key *ecdsa.PrivateKey) (common.Address, error) {
	rec := crypto.KeyRecord(key)
	if err := s.store.SaveKey(passphrase, rec); err != nil {
		return common.Address{}, err
	}
	return rec.Address, nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.AccountService.
var _ domain.AccountService = (*Service)(nil)
