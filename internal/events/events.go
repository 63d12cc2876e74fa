package events

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fystack/crown-clash/internal/game"
)

const (
	TypeSteal        = "steal"
	TypeWarStarted   = "war_started"
	TypeRoundEnded   = "round_ended"
	TypeRoundReset   = "round_reset"
	TypeBurn         = "burn"
	TypeHoldExtended = "hold_extended"
)

// Event is the envelope every message carries. Data holds one of the
// payloads below.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Round     uint64 `json:"round"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// SOL renders lamports as a decimal SOL amount.
func SOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9)
}

type StealPayload struct {
	Player       string          `json:"player"`
	Cost         decimal.Decimal `json:"cost"`
	VIP          bool            `json:"vip"`
	Phase        string          `json:"phase"`
	EnteredWar   bool            `json:"entered_war,omitempty"`
	PaidHolder   string          `json:"paid_holder,omitempty"`
	Refund       decimal.Decimal `json:"refund"`
	Yield        decimal.Decimal `json:"yield"`
	StaleHolder  bool            `json:"stale_holder,omitempty"`
	NextPrice    decimal.Decimal `json:"next_price"`
	Jackpot      decimal.Decimal `json:"jackpot"`
	Pending      decimal.Decimal `json:"pending_jackpot"`
	RoundEndTime int64           `json:"round_end_time"`
	WarEndTime   int64           `json:"war_end_time,omitempty"`
	TotalSteals  uint64          `json:"total_steals"`
}

type WarStartedPayload struct {
	ByGrowthSteals bool            `json:"by_growth_steals"`
	ByPrice        bool            `json:"by_price"`
	Ticket         decimal.Decimal `json:"ticket"`
	GrowthSteals   uint16          `json:"growth_steals"`
}

type WinnerPayload struct {
	Place  int             `json:"place"`
	Wallet string          `json:"wallet"`
	Amount decimal.Decimal `json:"amount"`
}

type RoundEndedPayload struct {
	Phase       string          `json:"phase"`
	DeadRound   bool            `json:"dead_round"`
	Mega        bool            `json:"mega"`
	Pot         decimal.Decimal `json:"pot"`
	Winners     []WinnerPayload `json:"winners"`
	Rollover    decimal.Decimal `json:"rollover"`
	NextRound   uint64          `json:"next_round"`
	NextJackpot decimal.Decimal `json:"next_jackpot"`
}

type RoundResetPayload struct {
	MergedPending decimal.Decimal `json:"merged_pending"`
	Jackpot       decimal.Decimal `json:"jackpot"`
	NextRound     uint64          `json:"next_round"`
}

type BurnPayload struct {
	Lamports    decimal.Decimal `json:"sol"`
	Tokens      uint64          `json:"tokens"`
	TotalBurned uint64          `json:"total_burned"`
}

type HoldExtendedPayload struct {
	Holder     string `json:"holder"`
	WarEndTime int64  `json:"war_end_time"`
}

func stealPayload(next game.State, out game.StealOutcome) StealPayload {
	p := StealPayload{
		Player:       out.Player.String(),
		Cost:         SOL(out.Cost),
		VIP:          out.VIP,
		Phase:        out.PhaseAfter.String(),
		EnteredWar:   out.EnteredWar(),
		Refund:       SOL(out.Refund),
		Yield:        SOL(out.Yield),
		StaleHolder:  out.StaleHolder,
		NextPrice:    SOL(next.CurrentPrice),
		Jackpot:      SOL(next.JackpotBalance),
		Pending:      SOL(next.PendingJackpot),
		RoundEndTime: next.RoundEndTime,
		TotalSteals:  next.TotalSteals,
	}
	if !out.PaidHolder.IsZero() {
		p.PaidHolder = out.PaidHolder.String()
	}
	if next.HitALickMode {
		p.NextPrice = SOL(next.HitALickPrice)
		p.WarEndTime = next.HitALickEndTime
	}
	return p
}

func roundEndedPayload(next game.State, out game.EndOutcome) RoundEndedPayload {
	p := RoundEndedPayload{
		Phase:       out.Phase.String(),
		DeadRound:   out.DeadRound,
		Mega:        out.Table.Mega,
		Pot:         SOL(out.Pot),
		Winners:     make([]WinnerPayload, 0, len(out.Payouts)),
		Rollover:    SOL(out.Rollover),
		NextRound:   out.NextRound,
		NextJackpot: SOL(next.JackpotBalance),
	}
	for _, w := range out.Payouts {
		p.Winners = append(p.Winners, WinnerPayload{Place: w.Place, Wallet: w.Winner.String(), Amount: SOL(w.Amount)})
	}
	return p
}
