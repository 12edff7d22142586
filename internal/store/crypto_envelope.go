package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const envelopeVersion = 1

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// sealed key has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted keystore")

// ErrKDFParams is returned when a keystore asks for scrypt costs beyond
// maxKDF.
var ErrKDFParams = errors.New("keystore kdf params out of range")

// kdfParams are the scrypt cost parameters recorded alongside the ciphertext
// so they can be raised later without breaking existing keystores.
type kdfParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

func defaultKDF() kdfParams { return kdfParams{N: 1 << 15, R: 8, P: 1} }

// maxKDF bounds what open will derive with. N=1<<20, r=8 needs 1 GiB.
var maxKDF = kdfParams{N: 1 << 20, R: 32, P: 16}

func (p kdfParams) check() error {
	if p.N <= 1 || p.N > maxKDF.N || p.R < 1 || p.R > maxKDF.R || p.P < 1 || p.P > maxKDF.P {
		return fmt.Errorf("%w: n=%d r=%d p=%d", ErrKDFParams, p.N, p.R, p.P)
	}
	return nil
}

// envelope is the on-disk JSON form of a sealed secret.
type envelope struct {
	Version int       `json:"version"`
	KDF     kdfParams `json:"kdf"`
	Salt    []byte    `json:"salt"`
	Nonce   []byte    `json:"nonce"`
	Cipher  []byte    `json:"cipher"`
}

func (p kdfParams) key(passphrase string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, p.N, p.R, p.P, chacha20poly1305.KeySize)
}

// seal encrypts raw under a key derived from passphrase. label is bound as
// associated data so an envelope cannot be swapped between files.
func seal(passphrase, label string, raw []byte, params kdfParams) ([]byte, error) {
	env := envelope{
		Version: envelopeVersion,
		KDF:     params,
		Salt:    make([]byte, 16),
		Nonce:   make([]byte, chacha20poly1305.NonceSizeX),
	}
	if _, err := rand.Read(env.Salt); err != nil {
		return nil, err
	}
	if _, err := rand.Read(env.Nonce); err != nil {
		return nil, err
	}
	key, err := params.key(passphrase, env.Salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	env.Cipher = aead.Seal(nil, env.Nonce, raw, []byte(label))
	return json.Marshal(env)
}

// open reverses seal.
func open(passphrase, label string, b []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode keystore: %w", err)
	}
	if env.Version > envelopeVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", env.Version)
	}
	if err := env.KDF.check(); err != nil {
		return nil, err
	}
	key, err := env.KDF.key(passphrase, env.Salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, ErrWrongPassphrase
	}
	pt, err := aead.Open(nil, env.Nonce, env.Cipher, []byte(label))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
