package storage

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/fystack/crown-clash/internal/game"
)

const roundsPrefix = "rounds/"

// Round close kinds.
const (
	CloseEnded = "ended"
	CloseReset = "reset"
)

type WinnerRecord struct {
	Place  int              `json:"place"`
	Wallet solana.PublicKey `json:"wallet"`
	Amount uint64           `json:"amount"`
}

// RoundRecord archives how a round closed.
type RoundRecord struct {
	Round     uint64         `json:"round"`
	Kind      string         `json:"kind"`
	Phase     string         `json:"phase"`
	ClosedAt  int64          `json:"closed_at"`
	Steals    uint64         `json:"steals"`
	Pot       uint64         `json:"pot"`
	Mega      bool           `json:"mega,omitempty"`
	DeadRound bool           `json:"dead_round,omitempty"`
	Winners   []WinnerRecord `json:"winners,omitempty"`
	Refund    uint64         `json:"refund,omitempty"`
	Yield     uint64         `json:"yield,omitempty"`
	Dev       uint64         `json:"dev,omitempty"`
	Beast     uint64         `json:"beast,omitempty"`
	Rollover  uint64         `json:"rollover"`
	// NextJackpot is the jackpot the following round opened with.
	NextJackpot uint64 `json:"next_jackpot"`
}

// EndedRecord builds the archive entry for a settled round. prev is the state
// before the round ended and next the state after.
func EndedRecord(prev, next game.State, out game.EndOutcome, closedAt int64) *RoundRecord {
	r := &RoundRecord{
		Round:       out.Round,
		Kind:        CloseEnded,
		Phase:       out.Phase.String(),
		ClosedAt:    closedAt,
		Steals:      prev.TotalSteals,
		Pot:         out.Pot,
		Mega:        out.Table.Mega,
		DeadRound:   out.DeadRound,
		Refund:      out.Refund,
		Yield:       out.Yield,
		Dev:         out.Table.Dev,
		Beast:       out.Table.Beast,
		Rollover:    out.Rollover,
		NextJackpot: next.JackpotBalance,
	}
	for _, p := range out.Payouts {
		r.Winners = append(r.Winners, WinnerRecord{Place: p.Place, Wallet: p.Winner, Amount: p.Amount})
	}
	return r
}

func ResetRecord(prev game.State, out game.ResetOutcome, closedAt int64) *RoundRecord {
	return &RoundRecord{
		Round:       out.Round,
		Kind:        CloseReset,
		Phase:       prev.Phase().String(),
		ClosedAt:    closedAt,
		Steals:      prev.TotalSteals,
		Pot:         prev.JackpotBalance,
		Rollover:    prev.JackpotBalance,
		NextJackpot: out.Jackpot,
	}
}

// Zero padded so badger iterates rounds in numeric order.
func roundKey(round uint64) string {
	return fmt.Sprintf("%s%020d", roundsPrefix, round)
}

// Round returns the archive entry for round. found is false for rounds that
// have not closed.
func (s *Store) Round(ctx context.Context, round uint64) (rec RoundRecord, found bool, err error) {
	if err := ctx.Err(); err != nil {
		return RoundRecord{}, false, err
	}
	found, err = s.kv.GetAny(roundKey(round), &rec)
	return rec, found, err
}

// Rounds returns up to limit archived rounds, newest first. limit <= 0 means
// all of them.
func (s *Store) Rounds(ctx context.Context, limit int) ([]RoundRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pairs, err := s.kv.List(roundsPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]RoundRecord, 0, len(pairs))
	for i := len(pairs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		var rec RoundRecord
		if err := s.kv.Codec().Unmarshal(pairs[i].Value, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", pairs[i].Key, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
