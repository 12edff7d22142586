// Package account manages the deployer account: creating or importing its
// secp256k1 key, sealing it under a passphrase and unlocking it for signing.
package account
