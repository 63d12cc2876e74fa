package arbiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/fystack/crown-clash/internal/account"
	"github.com/fystack/crown-clash/internal/events"
	"github.com/fystack/crown-clash/internal/game"
	"github.com/fystack/crown-clash/internal/storage"
	"github.com/fystack/crown-clash/pkg/clock"
	"github.com/fystack/crown-clash/pkg/common/logger"
)

// TokenBalances reports how many units of mint a wallet holds. Backed by the
// local token book or a Solana node.
type TokenBalances interface {
	TokenBalance(ctx context.Context, mint, owner solana.PublicKey) (uint64, error)
}

// Arbiter is the single writer of the game. Every operation runs under one
// lock: load, read balances, apply the transition, commit, publish.
type Arbiter struct {
	mu      sync.Mutex
	store   *storage.Store
	tokens  TokenBalances
	emitter events.Emitter
	clock   clock.Clock
	log     *slog.Logger
}

type Option func(*Arbiter)

func WithClock(c clock.Clock) Option {
	return func(a *Arbiter) { a.clock = c }
}

func WithEmitter(e events.Emitter) Option {
	return func(a *Arbiter) { a.emitter = e }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Arbiter) { a.log = l }
}

// New returns an arbiter over store. tokens defaults to the store's own
// token book.
func New(store *storage.Store, tokens TokenBalances, opts ...Option) *Arbiter {
	a := &Arbiter{
		store:   store,
		tokens:  tokens,
		emitter: events.Nop(),
		clock:   clock.New(),
		log:     logger.L(),
	}
	if a.tokens == nil {
		a.tokens = store
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Arbiter) now() int64 {
	return clock.Unix(a.clock)
}

type InitRequest struct {
	Authority       solana.PublicKey
	Wallets         game.Wallets
	StealMint       solana.PublicKey
	JackpotSeed     uint64
	YieldSeed       uint64
	SeasonStartTime int64
	Addresses       account.Addresses
}

// Initialize creates round 1. The fee wallets must already hold the rent
// exempt minimum in the ledger. Seeds are bookkeeping only; the vault is
// funded separately.
func (a *Arbiter) Initialize(ctx context.Context, req InitRequest) (game.State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	devBalance, err := a.store.BalanceOf(ctx, req.Wallets.Dev)
	if err != nil {
		return game.State{}, err
	}
	beastBalance, err := a.store.BalanceOf(ctx, req.Wallets.Beast)
	if err != nil {
		return game.State{}, err
	}
	state, err := game.NewGame(game.InitParams{
		Now:             a.now(),
		JackpotSeed:     req.JackpotSeed,
		YieldSeed:       req.YieldSeed,
		SeasonStartTime: req.SeasonStartTime,
		Wallets:         req.Wallets,
		StealMint:       req.StealMint,
		Vault:           req.Addresses.Vault,
		Bump:            req.Addresses.GameBump,
		DevBalance:      devBalance,
		BeastBalance:    beastBalance,
	})
	if err != nil {
		return game.State{}, err
	}
	cfg := account.GameConfig{
		Authority:   req.Authority,
		DevWallet:   req.Wallets.Dev,
		BeastWallet: req.Wallets.Beast,
		StealMint:   req.StealMint,
		Bump:        req.Addresses.ConfigBump,
	}
	if err := a.store.Initialize(ctx, state, cfg); err != nil {
		return game.State{}, err
	}
	a.log.Info("Game initialized",
		"round", state.Round,
		"price", state.CurrentPrice,
		"jackpot", state.JackpotBalance,
		"war_threshold", state.MinGrowthStealsForWar,
	)
	return state, nil
}

// State returns the committed game state.
func (a *Arbiter) State(ctx context.Context) (game.State, error) {
	return a.store.LoadGame(ctx)
}

func (a *Arbiter) wallets(ctx context.Context) (game.Wallets, error) {
	cfg, err := a.store.LoadConfig(ctx)
	if err != nil {
		return game.Wallets{}, err
	}
	return game.Wallets{Dev: cfg.DevWallet, Beast: cfg.BeastWallet}, nil
}

type StealRequest struct {
	Player solana.PublicKey
	// OldHolder is the holder the player saw. Nil means whoever holds the
	// crown when the steal is applied.
	OldHolder *solana.PublicKey
}

func (a *Arbiter) Steal(ctx context.Context, req StealRequest) (game.StealOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, err := a.store.LoadGame(ctx)
	if err != nil {
		return game.StealOutcome{}, err
	}
	wallets, err := a.wallets(ctx)
	if err != nil {
		return game.StealOutcome{}, err
	}
	tokens, err := a.tokens.TokenBalance(ctx, state.StealMint, req.Player)
	if err != nil {
		return game.StealOutcome{}, fmt.Errorf("token balance: %w", err)
	}
	playerBalance, err := a.store.BalanceOf(ctx, req.Player)
	if err != nil {
		return game.StealOutcome{}, err
	}
	vaultBalance, err := a.store.BalanceOf(ctx, state.Vault)
	if err != nil {
		return game.StealOutcome{}, err
	}

	in := game.StealInput{
		Now:           a.now(),
		Player:        req.Player,
		OldHolder:     state.King(),
		TokenMint:     state.StealMint,
		TokenBalance:  tokens,
		PlayerBalance: playerBalance,
		VaultBalance:  vaultBalance,
		Wallets:       wallets,
	}
	if req.OldHolder != nil {
		in.OldHolder = *req.OldHolder
	}

	next, out, err := game.Steal(state, in)
	if err != nil {
		return out, err
	}
	if err := a.store.Commit(ctx, state.Round, next, out.Transfers, nil); err != nil {
		return game.StealOutcome{}, fmt.Errorf("commit steal: %w", err)
	}

	if out.StaleHolder {
		a.log.Warn("Holder changed before steal landed, payout skipped",
			"round", out.Round,
			"player", out.Player,
			"expected", in.OldHolder,
		)
	}
	a.log.Info("Steal committed",
		"round", out.Round,
		"player", out.Player,
		"cost", out.Cost,
		"vip", out.VIP,
		"phase", out.PhaseAfter,
		"refund", out.Refund,
		"yield", out.Yield,
	)
	if out.EnteredWar() {
		a.log.Info("War started",
			"round", out.Round,
			"by_steals", out.Trigger.Steals,
			"by_price", out.Trigger.Price,
			"ticket", next.HitALickPrice,
		)
	}
	a.publish(a.emitter.EmitSteal(ctx, next, out))
	return out, nil
}

type EndRequest struct {
	Winner  solana.PublicKey
	Winner2 *solana.PublicKey
	Winner3 *solana.PublicKey
}

// PodiumRequest names the current holder and podium as winners.
func PodiumRequest(s game.State) EndRequest {
	req := EndRequest{Winner: s.King()}
	if s.HitALickMode {
		if s.RecentKings.Len() > 1 {
			w := s.RecentKings.Slot(1)
			req.Winner2 = &w
		}
		if s.RecentKings.Len() > 2 {
			w := s.RecentKings.Slot(2)
			req.Winner3 = &w
		}
	}
	return req
}

// EndRound settles the round. When the War holder has not held long enough
// the extended deadline is committed and ErrHoldTooShort returned.
func (a *Arbiter) EndRound(ctx context.Context, req EndRequest) (game.EndOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, err := a.store.LoadGame(ctx)
	if err != nil {
		return game.EndOutcome{}, err
	}
	wallets, err := a.wallets(ctx)
	if err != nil {
		return game.EndOutcome{}, err
	}
	vaultBalance, err := a.store.BalanceOf(ctx, state.Vault)
	if err != nil {
		return game.EndOutcome{}, err
	}
	now := a.now()

	next, out, err := game.EndRound(state, game.EndInput{
		Now:          now,
		Winner:       req.Winner,
		Winner2:      req.Winner2,
		Winner3:      req.Winner3,
		VaultBalance: vaultBalance,
		Wallets:      wallets,
	})
	if errors.Is(err, game.ErrHoldTooShort) {
		if cerr := a.store.Commit(ctx, state.Round, next, nil, nil); cerr != nil {
			return out, errors.Join(err, fmt.Errorf("commit extension: %w", cerr))
		}
		a.log.Info("Holder below minimum hold, War extended",
			"round", next.Round,
			"holder", next.King(),
			"war_end", next.HitALickEndTime,
		)
		a.publish(a.emitter.EmitHoldExtended(ctx, next))
		return out, err
	}
	if err != nil {
		return out, err
	}

	record := storage.EndedRecord(state, next, out, now)
	if err := a.store.Commit(ctx, state.Round, next, out.Transfers, record); err != nil {
		return game.EndOutcome{}, fmt.Errorf("commit end: %w", err)
	}
	a.log.Info("Round ended",
		"round", out.Round,
		"phase", out.Phase,
		"dead_round", out.DeadRound,
		"pot", out.Pot,
		"mega", out.Table.Mega,
		"rollover", out.Rollover,
		"next_jackpot", next.JackpotBalance,
	)
	a.publish(a.emitter.EmitRoundEnded(ctx, next, out))
	return out, nil
}

// ResetRound restarts a round that expired with nobody holding the crown.
func (a *Arbiter) ResetRound(ctx context.Context) (game.ResetOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, err := a.store.LoadGame(ctx)
	if err != nil {
		return game.ResetOutcome{}, err
	}
	now := a.now()
	next, out, err := game.ResetRound(state, now)
	if err != nil {
		return out, err
	}
	if err := a.store.Commit(ctx, state.Round, next, nil, storage.ResetRecord(state, out, now)); err != nil {
		return game.ResetOutcome{}, fmt.Errorf("commit reset: %w", err)
	}
	a.log.Info("Round reset",
		"round", out.Round,
		"merged_pending", out.MergedPending,
		"jackpot", out.Jackpot,
		"threshold", next.MinGrowthStealsForWar,
	)
	a.publish(a.emitter.EmitRoundReset(ctx, out))
	return out, nil
}

// Burn spends lamports of the pending beast fees on the buyback.
func (a *Arbiter) Burn(ctx context.Context, lamports uint64) (game.BurnOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, err := a.store.LoadGame(ctx)
	if err != nil {
		return game.BurnOutcome{}, err
	}
	next, out, err := game.BuybackBurn(state, lamports)
	if err != nil {
		return out, err
	}
	if err := a.store.Commit(ctx, state.Round, next, nil, nil); err != nil {
		return game.BurnOutcome{}, fmt.Errorf("commit burn: %w", err)
	}
	a.log.Info("Buyback burned",
		"lamports", out.Lamports,
		"tokens", out.Tokens,
		"total_burned", out.TotalBurned,
	)
	a.publish(a.emitter.EmitBurn(ctx, state.Round, out))
	return out, nil
}

// publish logs a failed event. The transition is already committed, so the
// caller still succeeds.
func (a *Arbiter) publish(err error) {
	if err != nil {
		a.log.Error("Failed to publish event", "error", err)
	}
}
