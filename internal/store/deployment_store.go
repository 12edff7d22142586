package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

const chainIDFilename = ".chainId"

// DeploymentFileStore persists one JSON file per deployment name under a
// per-network directory, e.g. deployments/mainnet/EthenaDepositHelperMainnet.json.
type DeploymentFileStore struct {
	dir     string
	chainID domain.ChainID
	mu      sync.Mutex
}

// NewDeploymentFileStore returns a store rooted at dir for the given chain.
func NewDeploymentFileStore(dir string, chainID domain.ChainID) *DeploymentFileStore {
	return &DeploymentFileStore{dir: dir, chainID: chainID}
}

// Dir returns the directory holding the records.
func (s *DeploymentFileStore) Dir() string { return s.dir }

func (s *DeploymentFileStore) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid deployment name %q", name)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// SaveDeployment writes d, replacing any record with the same name.
func (s *DeploymentFileStore) SaveDeployment(d domain.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(d.Name)
	if err != nil {
		return err
	}
	if err := s.ensureChainID(); err != nil {
		return err
	}
	return writeJSON(path, d, 0o644)
}

// ensureChainID writes the network marker file on first use and refuses to
// mix records from different chains in one directory.
func (s *DeploymentFileStore) ensureChainID() error {
	marker := filepath.Join(s.dir, chainIDFilename)
	b, err := readFile(marker)
	if err != nil {
		return err
	}
	want := s.chainID.String()
	if b == nil {
		return writeFile(marker, []byte(want), 0o644)
	}
	if got := strings.TrimSpace(string(b)); got != want {
		return fmt.Errorf("deployments dir %s belongs to chain %s, not %s", s.dir, got, want)
	}
	return nil
}

// LoadDeployment returns the record for name; ok is false if none exists.
func (s *DeploymentFileStore) LoadDeployment(name string) (domain.Deployment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(name)
	if err != nil {
		return domain.Deployment{}, false, err
	}
	var d domain.Deployment
	found, err := readJSON(path, &d)
	if err != nil {
		return domain.Deployment{}, false, fmt.Errorf("read deployment %s: %w", name, err)
	}
	return d, found, nil
}

// ListDeployments returns all records sorted by name.
func (s *DeploymentFileStore) ListDeployments() ([]domain.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []domain.Deployment
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		var d domain.Deployment
		if _, err := readJSON(filepath.Join(s.dir, e.Name()), &d); err != nil {
			return nil, fmt.Errorf("read deployment %s: %w", e.Name(), err)
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteDeployment removes the record for name. Deleting a missing record
// returns domain.ErrDeploymentNotFound.
func (s *DeploymentFileStore) DeleteDeployment(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrDeploymentNotFound, name)
	}
	return err
}

var _ domain.DeploymentStore = (*DeploymentFileStore)(nil)
