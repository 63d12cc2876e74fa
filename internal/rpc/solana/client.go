package solana

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/fystack/crown-clash/internal/game"
	"github.com/fystack/crown-clash/internal/rpc"
	"github.com/fystack/crown-clash/pkg/ratelimiter"
)

type Client struct {
	base       *rpc.Client
	commitment Commitment
}

var _ SolanaAPI = (*Client)(nil)

type Config struct {
	URL               string
	Auth              *rpc.AuthConfig
	RequestsPerSecond int
	BurstSize         int
	Options           rpc.Options
}

// NewSolanaClient builds a client whose requests to the same URL share one
// rate limit bucket.
func NewSolanaClient(cfg Config) *Client {
	opts := cfg.Options
	opts.Auth = cfg.Auth
	if cfg.RequestsPerSecond > 0 {
		opts.RateLimiter = ratelimiter.Shared(cfg.URL, cfg.RequestsPerSecond, cfg.BurstSize)
	}
	return &Client{
		base:       rpc.NewClient(cfg.URL, opts),
		commitment: CommitmentConfirmed,
	}
}

func (c *Client) GetHealth(ctx context.Context) error {
	var status string
	if err := c.base.Call(ctx, "getHealth", nil, &status); err != nil {
		return err
	}
	if status != "ok" {
		return fmt.Errorf("node unhealthy: %s", status)
	}
	return nil
}

func (c *Client) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	var out GetBalanceResult
	err := c.base.Call(ctx, "getBalance", []any{owner.String(), RequestConfig{Commitment: c.commitment}}, &out)
	return out.Value, err
}

// TokenAccounts lists owner's token accounts of mint.
func (c *Client) TokenAccounts(ctx context.Context, mint, owner solana.PublicKey) ([]KeyedTokenAccount, error) {
	var out GetTokenAccountsResult
	params := []any{
		owner.String(),
		TokenAccountsFilter{Mint: mint.String()},
		RequestConfig{Encoding: "jsonParsed", Commitment: c.commitment},
	}
	if err := c.base.Call(ctx, "getTokenAccountsByOwner", params, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// TokenBalance sums owner's balance of mint across all of its token
// accounts. An account reporting a different mint is rejected.
func (c *Client) TokenBalance(ctx context.Context, mint, owner solana.PublicKey) (uint64, error) {
	accounts, err := c.TokenAccounts(ctx, mint, owner)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, a := range accounts {
		info := a.Account.Data.Parsed.Info
		accountMint, err := solana.PublicKeyFromBase58(info.Mint)
		if err != nil {
			return 0, fmt.Errorf("token account %s: %w", a.Pubkey, err)
		}
		if err := game.VerifyTokenMint(accountMint, mint); err != nil {
			return 0, fmt.Errorf("token account %s: %w", a.Pubkey, err)
		}
		amount, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("token account %s amount: %w", a.Pubkey, err)
		}
		if total+amount < total {
			return 0, game.ErrArithmeticOverflow
		}
		total += amount
	}
	return total, nil
}
