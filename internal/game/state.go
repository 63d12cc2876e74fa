package game

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Identity is a player or wallet address.
type Identity = solana.PublicKey

// Phase is the stage a round is in.
type Phase uint8

const (
	PhaseGrowth Phase = iota
	PhaseWar
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseGrowth:
		return "growth"
	case PhaseWar:
		return "war"
	case PhaseEnded:
		return "ended"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Stake is what the current holder put in to take the crown. Its concrete
// type follows the phase the crown was taken in.
type Stake interface {
	// EntryPrice is the amount actually paid, surcharge included.
	EntryPrice() uint64
	// BasePrice is the persisted reference price: the paid amount in Growth,
	// the frozen ticket in War.
	BasePrice() uint64
	// Refund is owed to the holder when dethroned.
	Refund() uint64
}

// GrowthStake is a crown taken during Growth. The holder is refunded in full.
type GrowthStake struct {
	Paid uint64
}

func (g GrowthStake) EntryPrice() uint64 { return g.Paid }
func (g GrowthStake) BasePrice() uint64  { return g.Paid }
func (g GrowthStake) Refund() uint64     { return g.Paid }

// WarStake is a crown taken during War, including the steal that opened it.
// Paid may be a Growth price when this steal flipped the phase.
type WarStake struct {
	Paid   uint64
	Ticket uint64
}

func (w WarStake) EntryPrice() uint64 { return w.Paid }
func (w WarStake) BasePrice() uint64  { return w.Ticket }
func (w WarStake) Refund() uint64     { return HitALickRefund(w.Paid) }

// Crown is the current holder. A Crown is never modified once created.
type Crown struct {
	Holder Identity
	Since  int64
	WasVIP bool
	Stake  Stake
}

// HoldSeconds returns how long the holder has held the crown at now.
func (c *Crown) HoldSeconds(now int64) uint64 {
	if c == nil || now <= c.Since {
		return 0
	}
	return uint64(now - c.Since)
}

// State is the whole game record. Transitions take a State by value and
// return the next one; a rejected transition leaves the caller's copy as is.
type State struct {
	CurrentPrice    uint64
	HitALickPrice   uint64
	JackpotBalance  uint64
	PendingJackpot  uint64
	YieldPool       uint64
	RoundEndTime    int64
	HitALickEndTime int64
	HitALickMode    bool

	Crown *Crown

	DevWallet   Identity
	BeastWallet Identity
	StealMint   Identity
	// Vault holds the game's lamports. It is derived from the program id and
	// never persisted.
	Vault Identity

	Round           uint64
	TotalSteals     uint64
	TotalBurned     uint64
	BeastSOLPending uint64

	RecentKings RecentKings

	LastStealWallet Identity
	LastStealTime   int64
	CooldownSeconds uint64

	GrowthSteals          uint16
	MinGrowthStealsForWar uint16
	GrowthHardEnd         int64

	SeasonStartTime int64
	Bump            uint8
}

func (s State) Phase() Phase {
	if s.HitALickMode {
		return PhaseWar
	}
	return PhaseGrowth
}

func (s State) HasKing() bool {
	return s.Crown != nil
}

// King returns the holder, or the zero identity when there is none.
func (s State) King() Identity {
	if s.Crown == nil {
		return Identity{}
	}
	return s.Crown.Holder
}

// Pools returns jackpot + pending + yield, saturating.
func (s State) Pools() uint64 {
	return saturatingAdd(saturatingAdd(s.JackpotBalance, s.PendingJackpot), s.YieldPool)
}

// Validate checks the invariants every committed state satisfies.
func (s State) Validate() error {
	if !s.RecentKings.valid() {
		return fmt.Errorf("%w: recent kings hold %d entries or duplicates", ErrInvalidAccount, s.RecentKings.Count)
	}
	if s.MinGrowthStealsForWar < MinGrowthStealsClamp || s.MinGrowthStealsForWar > MaxGrowthStealsClamp {
		return fmt.Errorf("%w: min growth steals %d out of range", ErrInvalidAccount, s.MinGrowthStealsForWar)
	}
	if s.CurrentPrice == 0 {
		return fmt.Errorf("%w: current price is zero", ErrInvalidAccount)
	}
	if c := s.Crown; c != nil {
		if c.Stake == nil || c.Stake.EntryPrice() == 0 {
			return fmt.Errorf("%w: holder %s has no stake", ErrInvalidAccount, c.Holder)
		}
		switch c.Stake.(type) {
		case WarStake:
			if !s.HitALickMode {
				return fmt.Errorf("%w: war stake outside war", ErrInvalidAccount)
			}
		case GrowthStake:
			if s.HitALickMode {
				return fmt.Errorf("%w: growth stake during war", ErrInvalidAccount)
			}
		}
	}
	if s.HitALickMode && (s.HitALickPrice < WarPriceMin || s.HitALickPrice > WarPriceMax) {
		return fmt.Errorf("%w: war price %d out of range", ErrInvalidAccount, s.HitALickPrice)
	}
	return nil
}
