package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/fystack/crown-clash/internal/game"
	"github.com/fystack/crown-clash/internal/rpc"
	"github.com/fystack/crown-clash/pkg/retry"
)

// Pool answers token balance lookups from the first healthy endpoint of
// several.
type Pool struct {
	failover *rpc.Failover[SolanaAPI]
}

func NewPool(cfgs []Config, fcfg *rpc.FailoverConfig) (*Pool, error) {
	if len(cfgs) == 0 {
		return nil, errors.New("solana pool needs at least one endpoint")
	}
	f := rpc.NewFailover[SolanaAPI](fcfg)
	for i, cfg := range cfgs {
		err := f.AddProvider(&rpc.Provider{
			Name:   fmt.Sprintf("solana-%d", i+1),
			URL:    cfg.URL,
			Client: SolanaAPI(NewSolanaClient(cfg)),
		})
		if err != nil {
			return nil, err
		}
	}
	return &Pool{failover: f}, nil
}

func (p *Pool) Providers() []*rpc.Provider {
	return p.failover.Providers()
}

func (p *Pool) TokenBalance(ctx context.Context, mint, owner solana.PublicKey) (uint64, error) {
	var total uint64
	err := p.failover.Execute(ctx, func(c SolanaAPI) error {
		v, err := c.TokenBalance(ctx, mint, owner)
		if errors.Is(err, game.ErrInvalidMint) || errors.Is(err, game.ErrArithmeticOverflow) {
			return retry.Permanent(err)
		}
		total = v
		return err
	})
	return total, err
}
