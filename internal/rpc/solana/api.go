package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// SolanaAPI is the slice of the node API the game needs.
type SolanaAPI interface {
	GetHealth(ctx context.Context) error
	GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	TokenBalance(ctx context.Context, mint, owner solana.PublicKey) (uint64, error)
}
