package interfaces

import domaintypes "github.com/3jane-protocol/3jane-contracts/internal/domain/types"

// DeploymentStore persists deployment records for one network.
type DeploymentStore interface {
	SaveDeployment(d domaintypes.Deployment) error
	LoadDeployment(name string) (domaintypes.Deployment, bool, error)
	ListDeployments() ([]domaintypes.Deployment, error)
	DeleteDeployment(name string) error
}

// KeyStore keeps the deployer key encrypted at rest.
type KeyStore interface {
	SaveKey(passphrase string, rec domaintypes.KeyRecord) error
	LoadKey(passphrase string) (domaintypes.KeyRecord, error)
	HasKey() (bool, error)
}
