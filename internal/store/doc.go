// Package store provides file-based persistence for thetaops.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk with atomic temp-file renames. All methods
// are concurrency-safe via internal locking.
//
// The package includes stores for:
//   - Deployment records, one file per name per network (DeploymentFileStore)
//   - The deployer key, sealed with scrypt and XChaCha20-Poly1305 (KeyFileStore)
package store
