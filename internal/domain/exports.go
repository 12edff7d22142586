package domain

import (
	"errors"

	interfaces "github.com/3jane-protocol/3jane-contracts/internal/domain/interfaces"
	types "github.com/3jane-protocol/3jane-contracts/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	ChainID       = types.ChainID
	VaultType     = types.VaultType
	Deployment    = types.Deployment
	KeyRecord     = types.KeyRecord
	NamedAccounts = types.NamedAccounts
	Signature     = types.Signature
	Bid           = types.Bid
	SignedBid     = types.SignedBid
	Permit        = types.Permit
	VerifyRequest = types.VerifyRequest
	SwapRequest   = types.SwapRequest
	SwapQuote     = types.SwapQuote
)

const (
	VaultTypeNormal   = types.VaultTypeNormal
	VaultTypeEarn     = types.VaultTypeEarn
	VaultTypeVIP      = types.VaultTypeVIP
	VaultTypeTreasury = types.VaultTypeTreasury
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	DeploymentStore = interfaces.DeploymentStore
	KeyStore        = interfaces.KeyStore
	AccountService  = interfaces.AccountService
	Verifier        = interfaces.Verifier
	Quoter          = interfaces.Quoter
)

var (
	// ErrDeploymentNotFound is returned when no record exists for a deployment name.
	ErrDeploymentNotFound = errors.New("deployment not found")
	// ErrNoKey is returned when the keystore has not been initialised.
	ErrNoKey = errors.New("no deployer key in keystore")
)
