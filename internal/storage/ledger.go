package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/fystack/crown-clash/internal/game"
	"github.com/fystack/crown-clash/pkg/kvstore"
)

func balanceKey(owner solana.PublicKey) string {
	return "balances/" + owner.String()
}

func tokenKey(mint, owner solana.PublicKey) string {
	return "tokens/" + mint.String() + "/" + owner.String()
}

func readAmount(tx *kvstore.Tx, key string) (uint64, error) {
	var v uint64
	if _, err := tx.GetAny(key, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func transfer(tx *kvstore.Tx, from, to solana.PublicKey, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	src, err := readAmount(tx, balanceKey(from))
	if err != nil {
		return err
	}
	if src < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", game.ErrInsufficientFunds, from, src, amount)
	}
	dst, err := readAmount(tx, balanceKey(to))
	if err != nil {
		return err
	}
	if dst+amount < dst {
		return game.ErrArithmeticOverflow
	}
	if err := tx.SetAny(balanceKey(from), src-amount); err != nil {
		return err
	}
	return tx.SetAny(balanceKey(to), dst+amount)
}

// BalanceOf returns the lamports held by owner. Unknown owners hold zero.
func (s *Store) BalanceOf(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var v uint64
	err := s.kv.View(func(tx *kvstore.Tx) error {
		var err error
		v, err = readAmount(tx, balanceKey(owner))
		return err
	})
	return v, err
}

// Transfer moves lamports between two accounts.
func (s *Store) Transfer(ctx context.Context, from, to solana.PublicKey, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.kv.Update(func(tx *kvstore.Tx) error {
		return transfer(tx, from, to, amount)
	})
}

// Credit mints lamports into owner's account. Used to fund wallets.
func (s *Store) Credit(ctx context.Context, owner solana.PublicKey, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.kv.Update(func(tx *kvstore.Tx) error {
		v, err := readAmount(tx, balanceKey(owner))
		if err != nil {
			return err
		}
		if v+amount < v {
			return game.ErrArithmeticOverflow
		}
		return tx.SetAny(balanceKey(owner), v+amount)
	})
}

// TokenBalance returns owner's balance of mint held in the local book.
func (s *Store) TokenBalance(ctx context.Context, mint, owner solana.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var v uint64
	err := s.kv.View(func(tx *kvstore.Tx) error {
		var err error
		v, err = readAmount(tx, tokenKey(mint, owner))
		return err
	})
	return v, err
}

func (s *Store) SetTokenBalance(ctx context.Context, mint, owner solana.PublicKey, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.kv.SetAny(tokenKey(mint, owner), amount)
}

// Balances lists every funded account.
func (s *Store) Balances(ctx context.Context) (map[solana.PublicKey]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pairs, err := s.kv.List("balances/")
	if err != nil {
		return nil, err
	}
	out := make(map[solana.PublicKey]uint64, len(pairs))
	for _, p := range pairs {
		owner, err := solana.PublicKeyFromBase58(p.Key[len("balances/"):])
		if err != nil {
			return nil, errors.Join(fmt.Errorf("bad balance key %q", p.Key), err)
		}
		var v uint64
		if err := s.kv.Codec().Unmarshal(p.Value, &v); err != nil {
			return nil, err
		}
		out[owner] = v
	}
	return out, nil
}
