package game

import "fmt"

// Wallets are the fee accounts a caller routes money to. They must match the
// ones the game was initialised with.
type Wallets struct {
	Dev   Identity
	Beast Identity
}

// TransferKind labels one movement of lamports.
type TransferKind uint8

const (
	TransferEntry TransferKind = iota
	TransferHolderPayout
	TransferDevFee
	TransferBeastFee
	TransferWinner
	TransferDeadRoundPayout
)

func (k TransferKind) String() string {
	switch k {
	case TransferEntry:
		return "entry"
	case TransferHolderPayout:
		return "holder_payout"
	case TransferDevFee:
		return "dev_fee"
	case TransferBeastFee:
		return "beast_fee"
	case TransferWinner:
		return "winner"
	case TransferDeadRoundPayout:
		return "dead_round_payout"
	default:
		return fmt.Sprintf("transfer(%d)", uint8(k))
	}
}

// Transfer is one ledger movement. Transfers are applied in slice order.
type Transfer struct {
	Kind   TransferKind
	From   Identity
	To     Identity
	Amount uint64
}

// InitParams seeds a new game.
type InitParams struct {
	Now             int64
	JackpotSeed     uint64
	YieldSeed       uint64
	SeasonStartTime int64
	Wallets         Wallets
	StealMint       Identity
	Vault           Identity
	Bump            uint8
	// Balances of the fee wallets, which must be rent exempt.
	DevBalance   uint64
	BeastBalance uint64
}

// NewGame returns round 1 with the seeds in the jackpot and yield pool.
func NewGame(p InitParams) (State, error) {
	if p.DevBalance < RentExemptMin || p.BeastBalance < RentExemptMin {
		return State{}, ErrWalletNotRentExempt
	}
	s := State{
		JackpotBalance:  p.JackpotSeed,
		YieldPool:       p.YieldSeed,
		DevWallet:       p.Wallets.Dev,
		BeastWallet:     p.Wallets.Beast,
		StealMint:       p.StealMint,
		Vault:           p.Vault,
		Round:           1,
		CooldownSeconds: WarCooldownSecs,
		SeasonStartTime: p.SeasonStartTime,
		Bump:            p.Bump,
	}
	return s.startRound(p.Now, p.JackpotSeed), nil
}

// startRound clears every per-round field. Pools are left to the caller.
func (s State) startRound(now int64, thresholdJackpot uint64) State {
	s.CurrentPrice = StartPrice
	s.HitALickPrice = 0
	s.HitALickMode = false
	s.RoundEndTime = now + MaxTimerSecs
	s.HitALickEndTime = 0
	s.Crown = nil
	s.RecentKings = RecentKings{}
	s.LastStealWallet = Identity{}
	s.LastStealTime = 0
	s.GrowthSteals = 0
	s.MinGrowthStealsForWar = MinGrowthStealsForWar(thresholdJackpot)
	s.GrowthHardEnd = now + GrowthHardSecs
	s.TotalSteals = 0
	return s
}

// StealInput is everything a steal needs from outside the game.
type StealInput struct {
	Now    int64
	Player Identity
	// OldHolder is who the caller believes holds the crown.
	OldHolder Identity
	// TokenMint is the mint of the player's token account, zero when the
	// player has none. TokenBalance is ignored in that case.
	TokenMint     Identity
	TokenBalance  uint64
	PlayerBalance uint64
	// VaultBalance is read before the entry is collected.
	VaultBalance uint64
	Wallets      Wallets
}

// StealOutcome describes a committed steal.
type StealOutcome struct {
	Round       uint64
	Player      Identity
	Cost        uint64
	VIP         bool
	PhaseBefore Phase
	PhaseAfter  Phase
	Trigger     WarTrigger
	// PaidHolder is the dethroned holder that was paid, zero when nobody was.
	PaidHolder Identity
	Refund     uint64
	Yield      uint64
	// StaleHolder is set when OldHolder did not match the recorded holder
	// and the payout was skipped.
	StaleHolder bool
	Split       Split
	Transfers   []Transfer
}

// EnteredWar reports whether this steal flipped the round into War.
func (o StealOutcome) EnteredWar() bool {
	return o.PhaseBefore == PhaseGrowth && o.PhaseAfter == PhaseWar
}

// Steal takes the crown for in.Player. On error s is returned unchanged.
func Steal(s State, in StealInput) (State, StealOutcome, error) {
	if s.SeasonStartTime != 0 && in.Now < s.SeasonStartTime {
		return s, StealOutcome{}, ErrSeasonNotStarted
	}
	if in.Wallets.Dev != s.DevWallet || in.Wallets.Beast != s.BeastWallet {
		return s, StealOutcome{}, ErrInvalidAccount
	}
	if err := checkContestable(s, in); err != nil {
		return s, StealOutcome{}, err
	}

	tokenBalance := uint64(0)
	if !in.TokenMint.IsZero() {
		if err := VerifyTokenMint(in.TokenMint, s.StealMint); err != nil {
			return s, StealOutcome{}, err
		}
		tokenBalance = in.TokenBalance
	}
	vip := IsVIP(tokenBalance)
	cost := EntryCost(s, tokenBalance)
	if cost == 0 {
		return s, StealOutcome{}, ErrInvalidAccount
	}
	if in.PlayerBalance < cost {
		return s, StealOutcome{}, ErrInsufficientFunds
	}

	out := StealOutcome{
		Round:       s.Round,
		Player:      in.Player,
		Cost:        cost,
		VIP:         vip,
		PhaseBefore: s.Phase(),
	}

	var payout uint64
	if c := s.Crown; c != nil && c.Holder != in.Player {
		if in.OldHolder == c.Holder {
			refund := c.Stake.Refund()
			if s.HitALickMode && refund == 0 {
				return s, StealOutcome{}, ErrInvalidAccount
			}
			var yield uint64
			if !s.HitALickMode {
				yield = StealYield(s.YieldPool, c.Stake.EntryPrice(), cost, c.HoldSeconds(in.Now), c.WasVIP)
			}
			out.PaidHolder = c.Holder
			out.Refund = refund
			out.Yield = yield
			payout = saturatingAdd(refund, yield)
		} else {
			// The holder changed under the caller. Skip the payout; the
			// recorded holder is paid by whoever dethrones them next.
			out.StaleHolder = true
		}
	}

	var split Split
	if s.HitALickMode {
		split = HitALickOverheadSplit(s.HitALickPrice)
		split.Jackpot = saturatingAdd(split.Jackpot, saturatingSub(cost, s.HitALickPrice))
	} else {
		split = RunItUpSplit(s.CurrentPrice, cost)
	}
	split.Refund = out.Refund
	out.Split = split

	vault, ok := checkedAdd(in.VaultBalance, cost)
	if !ok {
		return s, StealOutcome{}, ErrArithmeticOverflow
	}
	required, ok := checkedAdd(payout, split.Dev)
	if ok {
		required, ok = checkedAdd(required, split.Beast)
	}
	if !ok {
		return s, StealOutcome{}, ErrArithmeticOverflow
	}
	if vault < required {
		return s, StealOutcome{}, ErrInsufficientPoolBalance
	}
	totalSteals, ok := checkedAdd(s.TotalSteals, 1)
	if !ok {
		return s, StealOutcome{}, ErrArithmeticOverflow
	}

	out.Transfers = append(out.Transfers, Transfer{Kind: TransferEntry, From: in.Player, To: s.Vault, Amount: cost})
	if payout > 0 {
		out.Transfers = append(out.Transfers, Transfer{Kind: TransferHolderPayout, From: s.Vault, To: out.PaidHolder, Amount: payout})
	}
	if split.Dev > 0 {
		out.Transfers = append(out.Transfers, Transfer{Kind: TransferDevFee, From: s.Vault, To: s.DevWallet, Amount: split.Dev})
	}
	if split.Beast > 0 {
		out.Transfers = append(out.Transfers, Transfer{Kind: TransferBeastFee, From: s.Vault, To: s.BeastWallet, Amount: split.Beast})
	}

	next := s
	next.YieldPool = saturatingSub(next.YieldPool, out.Yield)
	next.BeastSOLPending = saturatingAdd(next.BeastSOLPending, split.Beast)
	next.YieldPool = saturatingAdd(next.YieldPool, split.Yield)
	next.PendingJackpot = saturatingAdd(next.PendingJackpot, split.Jackpot)

	if next.HitALickMode {
		next.HitALickEndTime = in.Now + WarTimerSecs
		next.CurrentPrice = next.HitALickPrice
	} else {
		next.CurrentPrice = NextGrowthPrice(next.CurrentPrice)
		next.RoundEndTime = min(next.RoundEndTime+TimerAddSecs, in.Now+MaxTimerSecs)
		if next.GrowthSteals < ^uint16(0) {
			next.GrowthSteals++
		}
		out.Trigger = WarTriggers(next)
		if out.Trigger.Any() {
			next = EnterWar(next, in.Now)
		}
	}

	var stake Stake = GrowthStake{Paid: cost}
	if next.HitALickMode {
		stake = WarStake{Paid: cost, Ticket: next.HitALickPrice}
		next.RecentKings = next.RecentKings.Record(in.Player)
	}
	next.Crown = &Crown{Holder: in.Player, Since: in.Now, WasVIP: vip, Stake: stake}
	next.TotalSteals = totalSteals
	next.LastStealWallet = in.Player
	next.LastStealTime = in.Now

	out.PhaseAfter = next.Phase()
	return next, out, nil
}

// checkContestable rejects steals once the round can only be settled, and
// enforces the War cooldown.
func checkContestable(s State, in StealInput) error {
	if !s.HitALickMode {
		if in.Now >= s.RoundEndTime {
			return ErrRoundStillActive
		}
		return nil
	}
	if in.Now >= s.HitALickEndTime {
		// Past the countdown a holder that has not held for the minimum is
		// still fair game.
		if s.Crown == nil || s.Crown.HoldSeconds(in.Now) >= uint64(MinWarHoldSecs) {
			return ErrRoundStillActive
		}
	}
	if in.Player == s.LastStealWallet && s.LastStealTime > 0 && in.Now-s.LastStealTime < int64(s.CooldownSeconds) {
		return ErrRateLimited
	}
	return nil
}

// EndInput is everything end_round needs from outside the game.
type EndInput struct {
	Now int64
	// Winner must be the current holder. Winner2 and Winner3 are optional;
	// when given they must match the second and third recorded places.
	Winner       Identity
	Winner2      *Identity
	Winner3      *Identity
	VaultBalance uint64
	Wallets      Wallets
}

// Payout is one paid place.
type Payout struct {
	Place  int
	Winner Identity
	Amount uint64
}

// EndOutcome describes a settled round.
type EndOutcome struct {
	Round     uint64
	Phase     Phase
	DeadRound bool
	Pot       uint64
	Table     EndTable
	Payouts   []Payout
	// Refund and Yield are set for a dead round.
	Refund    uint64
	Yield     uint64
	Rollover  uint64
	NextRound uint64
	Transfers []Transfer
}

// EndRound settles a round that has a holder and starts the next one.
//
// ErrHoldTooShort is the one error that comes with a changed state: the War
// deadline is pushed to when the holder becomes eligible, and the caller is
// expected to keep that state.
func EndRound(s State, in EndInput) (State, EndOutcome, error) {
	if in.Wallets.Dev != s.DevWallet || in.Wallets.Beast != s.BeastWallet {
		return s, EndOutcome{}, ErrInvalidAccount
	}
	if s.HitALickMode {
		if in.Now < s.HitALickEndTime {
			return s, EndOutcome{}, ErrRoundNotYetOver
		}
		if s.Crown == nil {
			return s, EndOutcome{}, ErrNoCurrentHolder
		}
		if s.Crown.HoldSeconds(in.Now) < uint64(MinWarHoldSecs) {
			extended := s
			extended.HitALickEndTime = s.Crown.Since + MinWarHoldSecs
			return extended, EndOutcome{}, ErrHoldTooShort
		}
	} else if in.Now < s.RoundEndTime {
		return s, EndOutcome{}, ErrRoundNotYetOver
	}
	c := s.Crown
	if c == nil {
		return s, EndOutcome{}, ErrNoCurrentHolder
	}
	if in.Winner != c.Holder {
		return s, EndOutcome{}, ErrInvalidWinnerIdentity
	}

	out := EndOutcome{Round: s.Round, Phase: s.Phase(), Pot: s.JackpotBalance}
	next := s
	var nextJackpot uint64

	if s.HitALickMode {
		occupied := s.RecentKings.Len()
		out.Table = EndPayouts(out.Pot).Settle(occupied)
		first := out.Table.Winners[0]
		if occupied == 0 {
			// Only reachable from a hand-edited account: the holder is not
			// on the podium, so they get their entry back and the whole
			// podium rolls over.
			first = c.Stake.EntryPrice()
		}
		out.Payouts = append(out.Payouts, Payout{Place: 1, Winner: c.Holder, Amount: first})
		for place, supplied := range []*Identity{in.Winner2, in.Winner3} {
			idx := place + 1
			amount := out.Table.Winners[idx]
			if amount == 0 {
				continue
			}
			if supplied == nil {
				// Nobody to pay; the share stays with the pot.
				out.Table.Rollover = saturatingAdd(out.Table.Rollover, amount)
				out.Table.Winners[idx] = 0
				continue
			}
			if *supplied != s.RecentKings.Slot(idx) {
				return s, EndOutcome{}, ErrInvalidWinnerIdentity
			}
			out.Payouts = append(out.Payouts, Payout{Place: idx + 1, Winner: *supplied, Amount: amount})
		}
		nextJackpot = out.Table.Rollover
		out.Rollover = out.Table.Rollover
		for _, p := range out.Payouts {
			if p.Amount > 0 {
				out.Transfers = append(out.Transfers, Transfer{Kind: TransferWinner, From: s.Vault, To: p.Winner, Amount: p.Amount})
			}
		}
	} else {
		out.DeadRound = true
		out.Refund = c.Stake.EntryPrice()
		out.Yield = YieldWithCap(s.YieldPool, c.Stake.EntryPrice(), s.CurrentPrice, c.HoldSeconds(in.Now), c.WasVIP)
		amount, ok := checkedAdd(out.Refund, out.Yield)
		if !ok {
			return s, EndOutcome{}, ErrArithmeticOverflow
		}
		out.Payouts = append(out.Payouts, Payout{Place: 1, Winner: c.Holder, Amount: amount})
		out.Transfers = append(out.Transfers, Transfer{Kind: TransferDeadRoundPayout, From: s.Vault, To: c.Holder, Amount: amount})
		next.YieldPool = saturatingSub(next.YieldPool, out.Yield)
		nextJackpot = s.JackpotBalance
		out.Rollover = nextJackpot
	}

	var total uint64
	for _, t := range out.Transfers {
		var ok bool
		if total, ok = checkedAdd(total, t.Amount); !ok {
			return s, EndOutcome{}, ErrArithmeticOverflow
		}
	}
	if total > in.VaultBalance {
		return s, EndOutcome{}, ErrInsufficientPoolBalance
	}
	round, ok := checkedAdd(s.Round, 1)
	if !ok {
		return s, EndOutcome{}, ErrArithmeticOverflow
	}

	next.JackpotBalance = saturatingAdd(nextJackpot, next.PendingJackpot)
	next.PendingJackpot = 0
	next = next.startRound(in.Now, nextJackpot)
	next.Round = round
	out.NextRound = round
	return next, out, nil
}

// ResetOutcome describes a round closed without a holder.
type ResetOutcome struct {
	Round         uint64
	MergedPending uint64
	Jackpot       uint64
	NextRound     uint64
}

// ResetRound closes an expired round nobody took and starts the next one.
func ResetRound(s State, now int64) (State, ResetOutcome, error) {
	if now < s.RoundEndTime {
		return s, ResetOutcome{}, ErrRoundNotYetOver
	}
	if s.Crown != nil {
		return s, ResetOutcome{}, ErrHolderExists
	}
	round, ok := checkedAdd(s.Round, 1)
	if !ok {
		return s, ResetOutcome{}, ErrArithmeticOverflow
	}
	out := ResetOutcome{Round: s.Round, MergedPending: s.PendingJackpot, NextRound: round}
	next := s
	next.JackpotBalance = saturatingAdd(s.JackpotBalance, s.PendingJackpot)
	next.PendingJackpot = 0
	next = next.startRound(now, next.JackpotBalance)
	next.Round = round
	out.Jackpot = next.JackpotBalance
	return next, out, nil
}

// BurnOutcome describes a buyback-and-burn.
type BurnOutcome struct {
	Lamports    uint64
	Tokens      uint64
	TotalBurned uint64
}

// BuybackBurn converts lamports of the pending beast fees into tokens at the
// fixed swap rate and records them as burned.
func BuybackBurn(s State, lamports uint64) (State, BurnOutcome, error) {
	if lamports == 0 {
		return s, BurnOutcome{}, ErrInvalidOperand
	}
	if lamports > s.BeastSOLPending {
		return s, BurnOutcome{}, ErrInsufficientFunds
	}
	tokens, ok := BurnTokens(lamports)
	if !ok {
		return s, BurnOutcome{}, ErrArithmeticOverflow
	}
	burned, ok := checkedAdd(s.TotalBurned, tokens)
	if !ok {
		return s, BurnOutcome{}, ErrArithmeticOverflow
	}
	next := s
	next.BeastSOLPending -= lamports
	next.TotalBurned = burned
	return next, BurnOutcome{Lamports: lamports, Tokens: tokens, TotalBurned: burned}, nil
}

// BurnTokens is the token amount bought with lamports at the fixed rate.
func BurnTokens(lamports uint64) (uint64, bool) {
	return mulDiv128(lamports, BurnTokensPerSOL, LamportsPerSOL)
}
