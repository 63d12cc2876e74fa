package game

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 int64 = 1_700_000_000

var (
	devWallet   = testID(200)
	beastWallet = testID(201)
	stealMint   = testID(202)
	vault       = testID(203)
	wallets     = Wallets{Dev: devWallet, Beast: beastWallet}
)

func testID(b byte) Identity {
	var id Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func newTestGame(t *testing.T, jackpotSeed, yieldSeed uint64) State {
	t.Helper()
	s, err := NewGame(InitParams{
		Now:          t0,
		JackpotSeed:  jackpotSeed,
		YieldSeed:    yieldSeed,
		Wallets:      wallets,
		StealMint:    stealMint,
		Vault:        vault,
		Bump:         254,
		DevBalance:   RentExemptMin,
		BeastBalance: RentExemptMin,
	})
	require.NoError(t, err)
	return s
}

func stealIn(now int64, player, oldHolder Identity) StealInput {
	return StealInput{
		Now:           now,
		Player:        player,
		OldHolder:     oldHolder,
		PlayerBalance: 1_000_000_000_000,
		VaultBalance:  1_000_000_000_000,
		Wallets:       wallets,
	}
}

func warState(t *testing.T, jackpot uint64) State {
	t.Helper()
	s := newTestGame(t, jackpot, 0)
	s = EnterWar(s, t0)
	s.Crown = &Crown{Holder: testID(2), Since: t0, Stake: WarStake{Paid: WarEntryCost(s.HitALickPrice, false), Ticket: s.HitALickPrice}}
	s.RecentKings = s.RecentKings.Record(testID(1)).Record(testID(2))
	s.LastStealWallet = testID(2)
	s.LastStealTime = t0
	require.NoError(t, s.Validate())
	return s
}

func TestNewGame(t *testing.T) {
	s := newTestGame(t, 1_000_000_000, 5_000_000)

	assert.Equal(t, uint64(1), s.Round)
	assert.Equal(t, StartPrice, s.CurrentPrice)
	assert.Equal(t, uint64(1_000_000_000), s.JackpotBalance)
	assert.Equal(t, uint64(5_000_000), s.YieldPool)
	assert.Equal(t, t0+600, s.RoundEndTime)
	assert.Equal(t, t0+180, s.GrowthHardEnd)
	assert.Equal(t, uint16(50), s.MinGrowthStealsForWar)
	assert.Equal(t, WarCooldownSecs, s.CooldownSeconds)
	assert.False(t, s.HasKing())
	assert.Equal(t, PhaseGrowth, s.Phase())
	assert.NoError(t, s.Validate())
}

func TestNewGame_WalletsMustBeRentExempt(t *testing.T) {
	_, err := NewGame(InitParams{Now: t0, DevBalance: RentExemptMin - 1, BeastBalance: RentExemptMin})
	assert.True(t, errors.Is(err, ErrWalletNotRentExempt))
}

func TestSteal_FirstGrowthSteal(t *testing.T) {
	s := newTestGame(t, 0, 0)

	next, out, err := Steal(s, stealIn(t0+1, testID(1), Identity{}))
	require.NoError(t, err)

	assert.Equal(t, uint64(22_400_000), out.Cost)
	assert.Equal(t, uint64(22_400_000), next.CurrentPrice)
	assert.Equal(t, uint64(1_764_000), next.PendingJackpot)
	assert.Equal(t, uint64(480_000), next.YieldPool)
	assert.Equal(t, uint64(12_000), next.BeastSOLPending)
	assert.Equal(t, uint16(1), next.GrowthSteals)
	assert.Equal(t, t0+601, next.RoundEndTime, "timer capped at now+600")
	assert.Equal(t, testID(1), next.King())
	assert.Equal(t, GrowthStake{Paid: 22_400_000}, next.Crown.Stake)
	assert.Equal(t, 0, next.RecentKings.Len(), "podium only fills during War")
	assert.Equal(t, []Transfer{
		{Kind: TransferEntry, From: testID(1), To: vault, Amount: 22_400_000},
		{Kind: TransferDevFee, From: vault, To: devWallet, Amount: 144_000},
		{Kind: TransferBeastFee, From: vault, To: beastWallet, Amount: 12_000},
	}, out.Transfers)
	assert.NoError(t, next.Validate())
	assert.False(t, s.HasKing(), "input untouched")
}

func TestSteal_DethroneGrowthHolder(t *testing.T) {
	s := newTestGame(t, 0, 0)
	s, _, err := Steal(s, stealIn(t0+1, testID(1), Identity{}))
	require.NoError(t, err)

	next, out, err := Steal(s, stealIn(t0+6, testID(2), testID(1)))
	require.NoError(t, err)

	assert.Equal(t, uint64(25_088_000), out.Cost)
	assert.Equal(t, testID(1), out.PaidHolder)
	assert.Equal(t, uint64(22_400_000), out.Refund, "full refund of what was paid")
	assert.Equal(t, uint64(480_000), out.Yield, "bounded by the pool")
	assert.Equal(t, uint64(537_600), next.YieldPool, "pool drained then refilled by this steal")
	assert.Equal(t, uint64(1_764_000+1_975_680), next.PendingJackpot)
	assert.Equal(t, []Transfer{
		{Kind: TransferEntry, From: testID(2), To: vault, Amount: 25_088_000},
		{Kind: TransferHolderPayout, From: vault, To: testID(1), Amount: 22_880_000},
		{Kind: TransferDevFee, From: vault, To: devWallet, Amount: 161_280},
		{Kind: TransferBeastFee, From: vault, To: beastWallet, Amount: 13_440},
	}, out.Transfers)
	assert.NoError(t, next.Validate())
}

func TestSteal_TimerExtendsUpToCap(t *testing.T) {
	s := newTestGame(t, 0, 0)
	s.RoundEndTime = t0 + 100

	next, _, err := Steal(s, stealIn(t0+50, testID(1), Identity{}))
	require.NoError(t, err)
	assert.Equal(t, t0+130, next.RoundEndTime)
}

func TestSteal_EntersWarOnSteals(t *testing.T) {
	s := newTestGame(t, 5_000_000_000, 0)
	s.GrowthSteals = s.MinGrowthStealsForWar - 1

	next, out, err := Steal(s, stealIn(t0+1, testID(1), Identity{}))
	require.NoError(t, err)

	assert.True(t, out.EnteredWar())
	assert.Equal(t, WarTrigger{Steals: true}, out.Trigger)
	assert.Equal(t, uint64(150_000_000), next.HitALickPrice)
	assert.Equal(t, uint64(150_000_000), next.CurrentPrice)
	assert.Equal(t, t0+1+WarTimerSecs, next.HitALickEndTime)
	assert.Equal(t, WarStake{Paid: 22_400_000, Ticket: 150_000_000}, next.Crown.Stake)
	assert.Equal(t, []Identity{testID(1)}, next.RecentKings.Kings())
	assert.NoError(t, next.Validate())

	// The flip-steal holder is refunded 90% of the growth price they paid.
	after, out, err := Steal(next, stealIn(t0+2, testID(2), testID(1)))
	require.NoError(t, err)
	assert.Equal(t, uint64(20_160_000), out.Refund)
	assert.Equal(t, uint64(0), out.Yield)
	assert.Equal(t, []Identity{testID(2), testID(1)}, after.RecentKings.Kings())
}

func TestSteal_EntersWarOnPrice(t *testing.T) {
	s := newTestGame(t, 30_000_000, 0)

	next, out, err := Steal(s, stealIn(t0+1, testID(1), Identity{}))
	require.NoError(t, err)
	assert.Equal(t, WarTrigger{Price: true}, out.Trigger)
	assert.Equal(t, WarPriceMin, next.HitALickPrice)
}

func TestSteal_WarSurchargeGoesToJackpot(t *testing.T) {
	s := warState(t, 5_000_000_000)

	next, out, err := Steal(s, stealIn(t0+1, testID(3), testID(2)))
	require.NoError(t, err)
	assert.Equal(t, uint64(168_000_000), out.Cost)
	assert.Equal(t, uint64(151_200_000), out.Refund)
	assert.Equal(t, uint64(7_500_000), out.Split.Dev)
	assert.Equal(t, uint64(25_500_000), next.PendingJackpot)
	assert.Equal(t, t0+1+WarTimerSecs, next.HitALickEndTime)
	assert.Equal(t, uint64(150_000_000), next.CurrentPrice)
	assert.Equal(t, []Identity{testID(3), testID(2), testID(1)}, next.RecentKings.Kings())

	vip := stealIn(t0+1, testID(3), testID(2))
	vip.TokenMint = stealMint
	vip.TokenBalance = VIPTokenRequirement
	next, out, err = Steal(s, vip)
	require.NoError(t, err)
	assert.True(t, out.VIP)
	assert.Equal(t, uint64(150_000_000), out.Cost)
	assert.Equal(t, uint64(7_500_000), next.PendingJackpot)
	assert.True(t, next.Crown.WasVIP)
}

func TestSteal_WarSnipeWindow(t *testing.T) {
	s := warState(t, 5_000_000_000)
	s.HitALickEndTime = t0 + 10
	s.Crown = &Crown{Holder: testID(2), Since: t0 + 9, Stake: s.Crown.Stake}

	_, _, err := Steal(s, stealIn(t0+11, testID(3), testID(2)))
	assert.NoError(t, err, "holder has held 2s, still snipeable")

	_, _, err = Steal(s, stealIn(t0+12, testID(3), testID(2)))
	assert.True(t, errors.Is(err, ErrRoundStillActive))
}

func TestSteal_RateLimitedInWar(t *testing.T) {
	s := warState(t, 5_000_000_000)
	s.LastStealWallet = testID(3)
	s.LastStealTime = t0

	_, _, err := Steal(s, stealIn(t0+1, testID(3), testID(2)))
	assert.True(t, errors.Is(err, ErrRateLimited))

	_, _, err = Steal(s, stealIn(t0+2, testID(3), testID(2)))
	assert.NoError(t, err)
}

func TestSteal_NoRateLimitInGrowth(t *testing.T) {
	s := newTestGame(t, 0, 0)
	s, _, err := Steal(s, stealIn(t0+1, testID(1), Identity{}))
	require.NoError(t, err)

	next, out, err := Steal(s, stealIn(t0+1, testID(1), testID(1)))
	require.NoError(t, err)
	assert.Equal(t, Identity{}, out.PaidHolder, "self-steal pays nobody")
	assert.False(t, out.StaleHolder)
	assert.Equal(t, uint64(2), next.TotalSteals)
}

func TestSteal_Rejections(t *testing.T) {
	base := newTestGame(t, 0, 0)

	tests := []struct {
		name   string
		state  func(State) State
		input  func(StealInput) StealInput
		expect error
	}{
		{
			name:   "season not started",
			state:  func(s State) State { s.SeasonStartTime = t0 + 100; return s },
			expect: ErrSeasonNotStarted,
		},
		{
			name:   "growth timer over",
			input:  func(in StealInput) StealInput { in.Now = base.RoundEndTime; return in },
			expect: ErrRoundStillActive,
		},
		{
			name:   "wrong dev wallet",
			input:  func(in StealInput) StealInput { in.Wallets.Dev = testID(99); return in },
			expect: ErrInvalidAccount,
		},
		{
			name:   "wrong mint",
			input:  func(in StealInput) StealInput { in.TokenMint = testID(99); return in },
			expect: ErrInvalidMint,
		},
		{
			name:   "cannot afford",
			input:  func(in StealInput) StealInput { in.PlayerBalance = 22_399_999; return in },
			expect: ErrInsufficientFunds,
		},
		{
			name:   "zero price",
			state:  func(s State) State { s.CurrentPrice = 0; return s },
			expect: ErrInvalidAccount,
		},
		{
			name: "vault cannot cover the payout",
			state: func(s State) State {
				s.YieldPool = 1_000_000_000
				s.Crown = &Crown{Holder: testID(1), Since: t0 - 30, WasVIP: true, Stake: GrowthStake{Paid: StartPrice}}
				return s
			},
			input: func(in StealInput) StealInput {
				in.OldHolder = testID(1)
				in.VaultBalance = 0
				return in
			},
			expect: ErrInsufficientPoolBalance,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			if tt.state != nil {
				s = tt.state(s)
			}
			in := stealIn(t0+1, testID(2), Identity{})
			if tt.input != nil {
				in = tt.input(in)
			}
			got, out, err := Steal(s, in)
			assert.True(t, errors.Is(err, tt.expect), "got %v", err)
			assert.Equal(t, s, got, "state untouched")
			assert.Empty(t, out.Transfers)
		})
	}
}

// Two steals race against the same holder. The second one commits on top
// of the first and must not pay that holder again.
func TestSteal_StaleHolderRace(t *testing.T) {
	s := newTestGame(t, 0, 0)
	s, _, err := Steal(s, stealIn(t0+1, testID(1), Identity{}))
	require.NoError(t, err)

	s, first, err := Steal(s, stealIn(t0+2, testID(2), testID(1)))
	require.NoError(t, err)
	assert.Equal(t, testID(1), first.PaidHolder)

	s, second, err := Steal(s, stealIn(t0+2, testID(3), testID(1)))
	require.NoError(t, err)
	assert.True(t, second.StaleHolder)
	assert.Equal(t, Identity{}, second.PaidHolder)
	for _, tr := range second.Transfers {
		assert.NotEqual(t, TransferHolderPayout, tr.Kind)
	}
	assert.Equal(t, testID(3), s.King())

	_, third, err := Steal(s, stealIn(t0+3, testID(4), testID(3)))
	require.NoError(t, err)
	assert.Equal(t, testID(3), third.PaidHolder, "the real holder is settled by the next steal")
}

func TestEndRound_WarTwoPlaces(t *testing.T) {
	s := warState(t, 10_000_000_000)
	s.PendingJackpot = 100_000_000
	s.HitALickEndTime = t0 + 5
	winner2 := testID(1)

	next, out, err := EndRound(s, EndInput{
		Now:          t0 + 5,
		Winner:       testID(2),
		Winner2:      &winner2,
		VaultBalance: 20_000_000_000,
		Wallets:      wallets,
	})
	require.NoError(t, err)

	assert.False(t, out.Table.Mega)
	assert.Equal(t, []Payout{
		{Place: 1, Winner: testID(2), Amount: 1_500_000_000},
		{Place: 2, Winner: testID(1), Amount: 600_000_000},
	}, out.Payouts)
	assert.Equal(t, uint64(7_900_000_000), out.Rollover, "third place rolls over")
	assert.Equal(t, uint64(8_000_000_000), next.JackpotBalance)
	assert.Equal(t, uint64(0), next.PendingJackpot)
	assert.Equal(t, uint16(100), next.MinGrowthStealsForWar)
	assert.Equal(t, uint64(2), next.Round)
	assert.Equal(t, StartPrice, next.CurrentPrice)
	assert.Equal(t, PhaseGrowth, next.Phase())
	assert.False(t, next.HasKing())
	assert.Equal(t, 0, next.RecentKings.Len())
	assert.Equal(t, t0+5+600, next.RoundEndTime)
	assert.NoError(t, next.Validate())
}

func TestEndRound_MissingRunnerUpRollsOver(t *testing.T) {
	s := warState(t, 10_000_000_000)
	s.HitALickEndTime = t0 + 5

	next, out, err := EndRound(s, EndInput{Now: t0 + 5, Winner: testID(2), VaultBalance: 20_000_000_000, Wallets: wallets})
	require.NoError(t, err)
	assert.Len(t, out.Payouts, 1)
	assert.Equal(t, uint64(8_500_000_000), out.Rollover)
	assert.Equal(t, uint64(10_000_000_000), out.Rollover+out.Payouts[0].Amount)
	assert.Equal(t, uint64(8_500_000_000), next.JackpotBalance)
}

func TestEndRound_WrongWinner(t *testing.T) {
	s := warState(t, 10_000_000_000)
	s.HitALickEndTime = t0 + 5
	impostor := testID(9)

	_, _, err := EndRound(s, EndInput{Now: t0 + 5, Winner: testID(1), VaultBalance: 20_000_000_000, Wallets: wallets})
	assert.True(t, errors.Is(err, ErrInvalidWinnerIdentity))

	got, _, err := EndRound(s, EndInput{Now: t0 + 5, Winner: testID(2), Winner2: &impostor, VaultBalance: 20_000_000_000, Wallets: wallets})
	assert.True(t, errors.Is(err, ErrInvalidWinnerIdentity))
	assert.Equal(t, s, got)
}

func TestEndRound_HoldTooShortExtendsDeadline(t *testing.T) {
	s := warState(t, 10_000_000_000)
	s.HitALickEndTime = t0 + 10
	s.Crown = &Crown{Holder: testID(2), Since: t0 + 9, Stake: s.Crown.Stake}

	got, _, err := EndRound(s, EndInput{Now: t0 + 10, Winner: testID(2), VaultBalance: 20_000_000_000, Wallets: wallets})
	assert.True(t, errors.Is(err, ErrHoldTooShort))
	assert.Equal(t, t0+12, got.HitALickEndTime)
	assert.Equal(t, s.Round, got.Round)

	_, _, err = EndRound(got, EndInput{Now: t0 + 11, Winner: testID(2), VaultBalance: 20_000_000_000, Wallets: wallets})
	assert.True(t, errors.Is(err, ErrRoundNotYetOver))

	_, _, err = EndRound(got, EndInput{Now: t0 + 12, Winner: testID(2), VaultBalance: 20_000_000_000, Wallets: wallets})
	assert.NoError(t, err)
}

func TestEndRound_DeadRound(t *testing.T) {
	s := newTestGame(t, 1_000_000_000, 5_000_000)
	s.PendingJackpot = 2_000_000
	s.CurrentPrice = 22_400_000
	s.Crown = &Crown{Holder: testID(1), Since: t0 + 560, Stake: GrowthStake{Paid: 22_400_000}}

	next, out, err := EndRound(s, EndInput{Now: t0 + 600, Winner: testID(1), VaultBalance: 100_000_000, Wallets: wallets})
	require.NoError(t, err)

	assert.True(t, out.DeadRound)
	assert.Equal(t, uint64(22_400_000), out.Refund)
	assert.Equal(t, uint64(2_240_000), out.Yield)
	assert.Equal(t, []Transfer{{Kind: TransferDeadRoundPayout, From: vault, To: testID(1), Amount: 24_640_000}}, out.Transfers)
	assert.Equal(t, uint64(2_760_000), next.YieldPool)
	assert.Equal(t, uint64(1_002_000_000), next.JackpotBalance)
	assert.Equal(t, uint16(50), next.MinGrowthStealsForWar, "threshold from the carried jackpot, before pending")
	assert.Equal(t, uint64(2), next.Round)
}

func TestEndRound_Rejections(t *testing.T) {
	growth := newTestGame(t, 0, 0)
	_, _, err := EndRound(growth, EndInput{Now: t0 + 599, Wallets: wallets})
	assert.True(t, errors.Is(err, ErrRoundNotYetOver))

	_, _, err = EndRound(growth, EndInput{Now: t0 + 600, Wallets: wallets})
	assert.True(t, errors.Is(err, ErrNoCurrentHolder))

	_, _, err = EndRound(growth, EndInput{Now: t0 + 600})
	assert.True(t, errors.Is(err, ErrInvalidAccount))

	war := warState(t, 10_000_000_000)
	war.HitALickEndTime = t0 + 5
	_, _, err = EndRound(war, EndInput{Now: t0 + 5, Winner: testID(2), VaultBalance: 1, Wallets: wallets})
	assert.True(t, errors.Is(err, ErrInsufficientPoolBalance))
}

func TestResetRound(t *testing.T) {
	s := newTestGame(t, 1_000_000_000, 0)
	s.PendingJackpot = 1_500_000_000

	_, _, err := ResetRound(s, t0+599)
	assert.True(t, errors.Is(err, ErrRoundNotYetOver))

	next, out, err := ResetRound(s, t0+600)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500_000_000), next.JackpotBalance)
	assert.Equal(t, uint64(1_500_000_000), out.MergedPending)
	assert.Equal(t, uint16(72), next.MinGrowthStealsForWar, "threshold from the merged jackpot")
	assert.Equal(t, uint64(2), next.Round)
	assert.Equal(t, t0+1200, next.RoundEndTime)

	s.Crown = &Crown{Holder: testID(1), Since: t0, Stake: GrowthStake{Paid: StartPrice}}
	_, _, err = ResetRound(s, t0+600)
	assert.True(t, errors.Is(err, ErrHolderExists))
}

func TestBuybackBurn(t *testing.T) {
	s := newTestGame(t, 0, 0)
	s.BeastSOLPending = 1_000_000

	next, out, err := BuybackBurn(s, 500_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000_000), out.Tokens)
	assert.Equal(t, uint64(500_000), next.BeastSOLPending)
	assert.Equal(t, uint64(50_000_000_000), next.TotalBurned)

	_, _, err = BuybackBurn(next, 500_001)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	_, _, err = BuybackBurn(next, 0)
	assert.True(t, errors.Is(err, ErrInvalidOperand))
}

// Random play never overdraws the vault, and a steal only shrinks a pool
// through the yield it pays.
func TestRandomPlayKeepsLedgerBalanced(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	s := newTestGame(t, 2_000_000_000, 50_000_000)
	vaultBalance := uint64(2_050_000_000)
	now := t0

	for i := 0; i < 2_000; i++ {
		switch r := rng.IntN(100); {
		case r < 2:
			now += 700
		case r < 6:
			now += 15
		default:
			now += int64(rng.IntN(4))
		}
		player := testID(byte(1 + rng.IntN(6)))
		before := s

		in := stealIn(now, player, s.King())
		in.VaultBalance = vaultBalance
		if rng.IntN(3) == 0 {
			in.TokenMint = stealMint
			in.TokenBalance = VIPTokenRequirement
		}
		next, out, err := Steal(s, in)
		if err == nil {
			vaultBalance = applyVault(t, vaultBalance, out.Transfers)
			assert.GreaterOrEqual(t, next.YieldPool+out.Yield, before.YieldPool)
			assert.GreaterOrEqual(t, next.PendingJackpot, before.PendingJackpot)
			assert.Equal(t, before.JackpotBalance, next.JackpotBalance)
			s = next
		} else {
			assert.Equal(t, before, next)
			ended, endOut, endErr := EndRound(s, EndInput{
				Now:          now,
				Winner:       s.King(),
				Winner2:      slotPtr(s.RecentKings, 1),
				Winner3:      slotPtr(s.RecentKings, 2),
				VaultBalance: vaultBalance,
				Wallets:      wallets,
			})
			switch {
			case endErr == nil:
				vaultBalance = applyVault(t, vaultBalance, endOut.Transfers)
				s = ended
			case errors.Is(endErr, ErrHoldTooShort):
				s = ended
			case errors.Is(endErr, ErrNoCurrentHolder):
				s, _, endErr = ResetRound(s, now)
				require.NoError(t, endErr)
			}
		}
		require.NoError(t, s.Validate())
	}
	assert.Greater(t, s.Round, uint64(1))
}

func applyVault(t *testing.T, balance uint64, transfers []Transfer) uint64 {
	t.Helper()
	for _, tr := range transfers {
		switch vault {
		case tr.To:
			balance += tr.Amount
		case tr.From:
			require.GreaterOrEqual(t, balance, tr.Amount, "%s overdraws the vault", tr.Kind)
			balance -= tr.Amount
		}
	}
	return balance
}

func slotPtr(r RecentKings, i int) *Identity {
	id, ok := r.At(i)
	if !ok {
		return nil
	}
	return &id
}
