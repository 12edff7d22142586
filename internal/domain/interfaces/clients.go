package interfaces

import (
	"context"

	domaintypes "github.com/3jane-protocol/3jane-contracts/internal/domain/types"
)

// Verifier submits source for verification to a block explorer.
type Verifier interface {
	Verify(ctx context.Context, req domaintypes.VerifyRequest) error
}

// Quoter fetches swap calldata from a DEX aggregator.
type Quoter interface {
	Swap(ctx context.Context, req domaintypes.SwapRequest) (domaintypes.SwapQuote, error)
}
