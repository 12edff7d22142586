package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/3jane-protocol/3jane-contracts/internal/crypto"
	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

const keystoreFilename = "keystore.json"

// KeyFileStore keeps the deployer key sealed on disk.
type KeyFileStore struct {
	dir    string
	params kdfParams
	mu     sync.Mutex
}

// NewKeyFileStore returns a KeyFileStore rooted at dir.
func NewKeyFileStore(dir string) *KeyFileStore {
	return &KeyFileStore{dir: dir, params: defaultKDF()}
}

func (s *KeyFileStore) path() string { return filepath.Join(s.dir, keystoreFilename) }

// SaveKey seals rec with passphrase and replaces any existing keystore.
func (s *KeyFileStore) SaveKey(passphrase string, rec domain.KeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	defer crypto.Wipe(raw)

	ct, err := seal(passphrase, keystoreFilename, raw, s.params)
	if err != nil {
		return err
	}
	return writeFile(s.path(), ct, 0o600)
}

// LoadKey opens the keystore. It returns domain.ErrNoKey if none exists.
func (s *KeyFileStore) LoadKey(passphrase string) (domain.KeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path())
	if err != nil {
		return domain.KeyRecord{}, err
	}
	if b == nil {
		return domain.KeyRecord{}, domain.ErrNoKey
	}
	pt, err := open(passphrase, keystoreFilename, b)
	if err != nil {
		return domain.KeyRecord{}, err
	}
	defer crypto.Wipe(pt)

	var rec domain.KeyRecord
	if err := json.Unmarshal(pt, &rec); err != nil {
		return domain.KeyRecord{}, err
	}
	return rec, nil
}

// HasKey reports whether a keystore file exists.
func (s *KeyFileStore) HasKey() (bool, error) {
	_, err := os.Stat(s.path())
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

var _ domain.KeyStore = (*KeyFileStore)(nil)
