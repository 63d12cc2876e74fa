package account

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/fystack/crown-clash/internal/game"
)

// DiscriminatorSize is the length of the account type prefix.
const DiscriminatorSize = 8

var (
	GameAccountDiscriminator = bin.SighashTypeID("account", "GameAccount")
	GameConfigDiscriminator  = bin.SighashTypeID("account", "GameConfig")
)

// GameAccount is the persisted game record.
// Size: 8 (discriminator) + 409 = 417 bytes.
type GameAccount struct {
	CurrentPrice     uint64 // 8 bytes
	HitALickPrice    uint64 // 8 bytes
	JackpotBalance   uint64 // 8 bytes
	PendingJackpot   uint64 // 8 bytes
	YieldPool        uint64 // 8 bytes
	RoundEndTime     int64  // 8 bytes
	HitALickEndTime  int64  // 8 bytes
	IsHitALickMode   bool   // 1 byte
	CurrentKing      solana.PublicKey
	KingSince        int64  // 8 bytes
	KingEntryPrice   uint64 // 8 bytes, amount actually paid
	KingBasePrice    uint64 // 8 bytes, paid amount in growth, ticket in war
	HasKing          bool   // 1 byte
	DevWallet        solana.PublicKey
	BeastWallet      solana.PublicKey
	StealMint        solana.PublicKey
	Round            uint64 // 8 bytes
	TotalSteals      uint64 // 8 bytes
	TotalBurned      uint64 // 8 bytes
	BeastSOLPending  uint64 // 8 bytes
	RecentKings      [game.MaxRecentKings]solana.PublicKey
	RecentKingsCount uint8 // 1 byte
	LastStealWallet  solana.PublicKey
	LastStealTime    int64  // 8 bytes
	CooldownSeconds  uint64 // 8 bytes
	GrowthSteals     uint16 // 2 bytes
	MinGrowthSteals  uint16 // 2 bytes
	GrowthHardEndTs  int64  // 8 bytes
	KingWasVIP       bool   // 1 byte
	SeasonStartTime  int64  // 8 bytes
	Bump             uint8  // 1 byte
}

// GameAccountSize is the encoded length including the discriminator.
const GameAccountSize = DiscriminatorSize + 5*8 + 2*8 + 1 + 32 + 3*8 + 1 + 3*32 + 4*8 + 3*32 + 1 + 32 + 2*8 + 2*2 + 8 + 1 + 8 + 1

// GameConfig holds the canonical fee wallets and mint.
// Size: 8 (discriminator) + 129 = 137 bytes.
type GameConfig struct {
	Authority   solana.PublicKey
	DevWallet   solana.PublicKey
	BeastWallet solana.PublicKey
	StealMint   solana.PublicKey
	Bump        uint8 // 1 byte
}

const GameConfigSize = DiscriminatorSize + 4*32 + 1

// FromState flattens a game state into the persisted layout.
func FromState(s game.State) GameAccount {
	a := GameAccount{
		CurrentPrice:     s.CurrentPrice,
		HitALickPrice:    s.HitALickPrice,
		JackpotBalance:   s.JackpotBalance,
		PendingJackpot:   s.PendingJackpot,
		YieldPool:        s.YieldPool,
		RoundEndTime:     s.RoundEndTime,
		HitALickEndTime:  s.HitALickEndTime,
		IsHitALickMode:   s.HitALickMode,
		DevWallet:        s.DevWallet,
		BeastWallet:      s.BeastWallet,
		StealMint:        s.StealMint,
		Round:            s.Round,
		TotalSteals:      s.TotalSteals,
		TotalBurned:      s.TotalBurned,
		BeastSOLPending:  s.BeastSOLPending,
		RecentKings:      s.RecentKings.Slots,
		RecentKingsCount: s.RecentKings.Count,
		LastStealWallet:  s.LastStealWallet,
		LastStealTime:    s.LastStealTime,
		CooldownSeconds:  s.CooldownSeconds,
		GrowthSteals:     s.GrowthSteals,
		MinGrowthSteals:  s.MinGrowthStealsForWar,
		GrowthHardEndTs:  s.GrowthHardEnd,
		SeasonStartTime:  s.SeasonStartTime,
		Bump:             s.Bump,
	}
	if c := s.Crown; c != nil {
		a.HasKing = true
		a.CurrentKing = c.Holder
		a.KingSince = c.Since
		a.KingWasVIP = c.WasVIP
		a.KingEntryPrice = c.Stake.EntryPrice()
		a.KingBasePrice = c.Stake.BasePrice()
	}
	return a
}

// State rebuilds the game state. The stake variant follows the phase flag.
// vault is not persisted and is supplied by the caller.
func (a GameAccount) State(vault solana.PublicKey) game.State {
	s := game.State{
		CurrentPrice:    a.CurrentPrice,
		HitALickPrice:   a.HitALickPrice,
		JackpotBalance:  a.JackpotBalance,
		PendingJackpot:  a.PendingJackpot,
		YieldPool:       a.YieldPool,
		RoundEndTime:    a.RoundEndTime,
		HitALickEndTime: a.HitALickEndTime,
		HitALickMode:    a.IsHitALickMode,
		DevWallet:       a.DevWallet,
		BeastWallet:     a.BeastWallet,
		StealMint:       a.StealMint,
		Vault:           vault,
		Round:           a.Round,
		TotalSteals:     a.TotalSteals,
		TotalBurned:     a.TotalBurned,
		BeastSOLPending: a.BeastSOLPending,
		RecentKings: game.RecentKings{
			Slots: a.RecentKings,
			Count: a.RecentKingsCount,
		},
		LastStealWallet:       a.LastStealWallet,
		LastStealTime:         a.LastStealTime,
		CooldownSeconds:       a.CooldownSeconds,
		GrowthSteals:          a.GrowthSteals,
		MinGrowthStealsForWar: a.MinGrowthSteals,
		GrowthHardEnd:         a.GrowthHardEndTs,
		SeasonStartTime:       a.SeasonStartTime,
		Bump:                  a.Bump,
	}
	if a.HasKing {
		var stake game.Stake = game.GrowthStake{Paid: a.KingEntryPrice}
		if a.IsHitALickMode {
			stake = game.WarStake{Paid: a.KingEntryPrice, Ticket: a.KingBasePrice}
		}
		s.Crown = &game.Crown{
			Holder: a.CurrentKing,
			Since:  a.KingSince,
			WasVIP: a.KingWasVIP,
			Stake:  stake,
		}
	}
	return s
}

// EncodeGame returns the discriminator followed by the borsh fields.
func EncodeGame(s game.State) ([]byte, error) {
	return encode(GameAccountDiscriminator, FromState(s))
}

// DecodeGame parses an account produced by EncodeGame.
func DecodeGame(data []byte, vault solana.PublicKey) (game.State, error) {
	var a GameAccount
	if err := decode(data, GameAccountDiscriminator, GameAccountSize, &a); err != nil {
		return game.State{}, fmt.Errorf("decode game account: %w", err)
	}
	return a.State(vault), nil
}

func EncodeConfig(c GameConfig) ([]byte, error) {
	return encode(GameConfigDiscriminator, c)
}

func DecodeConfig(data []byte) (GameConfig, error) {
	var c GameConfig
	if err := decode(data, GameConfigDiscriminator, GameConfigSize, &c); err != nil {
		return GameConfig{}, fmt.Errorf("decode game config: %w", err)
	}
	return c, nil
}

func encode(disc bin.TypeID, v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, disc bin.TypeID, size int, v any) error {
	if len(data) < size {
		return fmt.Errorf("%w: account is %d bytes, want %d", game.ErrInvalidAccount, len(data), size)
	}
	if bin.TypeID(data[:DiscriminatorSize]) != disc {
		return fmt.Errorf("%w: discriminator mismatch", game.ErrInvalidAccount)
	}
	return bin.NewBorshDecoder(data[DiscriminatorSize:size]).Decode(v)
}
