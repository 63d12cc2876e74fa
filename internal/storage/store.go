package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/fystack/crown-clash/internal/account"
	"github.com/fystack/crown-clash/internal/game"
	"github.com/fystack/crown-clash/pkg/kvstore"
)

const (
	gameKey   = "accounts/game"
	configKey = "accounts/config"
)

var (
	ErrNotInitialized     = errors.New("game is not initialized")
	ErrAlreadyInitialized = errors.New("game is already initialized")
)

// Store keeps the game account, the lamport ledger, token balances and the
// round archive in one badger keyspace, so a transition and the money it
// moves commit together.
type Store struct {
	kv    *kvstore.BadgerStore
	vault solana.PublicKey
}

// New wraps an open kv store. vault is the address the game's lamports are
// held at.
func New(kv *kvstore.BadgerStore, vault solana.PublicKey) *Store {
	return &Store{kv: kv, vault: vault}
}

// Open opens a badger store and wraps it.
func Open(opts kvstore.Options, vault solana.PublicKey) (*Store, error) {
	kv, err := kvstore.NewBadgerStore(opts)
	if err != nil {
		return nil, err
	}
	return New(kv, vault), nil
}

func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) Vault() solana.PublicKey {
	return s.vault
}

// Initialize writes the first game state and config. It fails if a game
// already exists.
func (s *Store) Initialize(ctx context.Context, state game.State, cfg account.GameConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gameData, err := account.EncodeGame(state)
	if err != nil {
		return err
	}
	cfgData, err := account.EncodeConfig(cfg)
	if err != nil {
		return err
	}
	return s.kv.Update(func(tx *kvstore.Tx) error {
		if _, err := tx.Get(gameKey); err == nil {
			return ErrAlreadyInitialized
		} else if !errors.Is(err, kvstore.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(gameKey, gameData); err != nil {
			return err
		}
		return tx.Set(configKey, cfgData)
	})
}

// LoadGame reads the current game state.
func (s *Store) LoadGame(ctx context.Context) (game.State, error) {
	if err := ctx.Err(); err != nil {
		return game.State{}, err
	}
	var state game.State
	err := s.kv.View(func(tx *kvstore.Tx) error {
		var err error
		state, err = s.loadGame(tx)
		return err
	})
	return state, err
}

func (s *Store) loadGame(tx *kvstore.Tx) (game.State, error) {
	data, err := tx.Get(gameKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return game.State{}, ErrNotInitialized
	}
	if err != nil {
		return game.State{}, err
	}
	return account.DecodeGame(data, s.vault)
}

func (s *Store) LoadConfig(ctx context.Context) (account.GameConfig, error) {
	if err := ctx.Err(); err != nil {
		return account.GameConfig{}, err
	}
	data, err := s.kv.Get(configKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return account.GameConfig{}, ErrNotInitialized
	}
	if err != nil {
		return account.GameConfig{}, err
	}
	return account.DecodeConfig(data)
}

// Commit writes the next state, applies its transfers in order and archives
// the round if one closed, all in one transaction. expectedRound guards
// against a writer that loaded a state which has since moved on.
func (s *Store) Commit(ctx context.Context, expectedRound uint64, next game.State, transfers []game.Transfer, closed *RoundRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := account.EncodeGame(next)
	if err != nil {
		return err
	}
	return s.kv.Update(func(tx *kvstore.Tx) error {
		current, err := s.loadGame(tx)
		if err != nil {
			return err
		}
		if current.Round != expectedRound {
			return fmt.Errorf("%w: state moved from round %d to %d", ErrConflict, expectedRound, current.Round)
		}
		for _, t := range transfers {
			if err := transfer(tx, t.From, t.To, t.Amount); err != nil {
				return fmt.Errorf("%s transfer: %w", t.Kind, err)
			}
		}
		if closed != nil {
			if err := tx.SetAny(roundKey(closed.Round), closed); err != nil {
				return err
			}
		}
		return tx.Set(gameKey, data)
	})
}

var ErrConflict = errors.New("concurrent game update")
