package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/crown-clash/internal/game"
	"github.com/fystack/crown-clash/pkg/clock"
)

type published struct {
	subject string
	data    []byte
	msgID   string
}

type fakePublisher struct {
	mu       sync.Mutex
	failures int
	calls    []published
	closed   bool
}

func (f *fakePublisher) Publish(_ context.Context, subject string, data []byte, msgID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, published{subject: subject, data: data, msgID: msgID})
	if f.failures > 0 {
		f.failures--
		return errors.New("nats: no responders")
	}
	return nil
}

func (f *fakePublisher) Close() { f.closed = true }

func key(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func newTestEmitter(pub Publisher) Emitter {
	return NewEmitter(pub, "crownclash.events", WithRetry(3, time.Millisecond), WithClock(clock.NewMock(1_700_000_000)))
}

func TestSOL(t *testing.T) {
	assert.Equal(t, "0.0224", SOL(22_400_000).String())
	assert.Equal(t, "50", SOL(50_000_000_000).String())
	assert.Equal(t, "18446744073.709551615", SOL(^uint64(0)).String())
}

func TestEmitSteal(t *testing.T) {
	pub := &fakePublisher{}
	e := newTestEmitter(pub)

	next := game.State{CurrentPrice: 25_088_000, JackpotBalance: 1_000_000_000, RoundEndTime: 1_700_000_601, TotalSteals: 2}
	out := game.StealOutcome{
		Round:       3,
		Player:      key(2),
		Cost:        25_088_000,
		PhaseBefore: game.PhaseGrowth,
		PhaseAfter:  game.PhaseGrowth,
		PaidHolder:  key(1),
		Refund:      22_400_000,
		Yield:       480_000,
	}
	require.NoError(t, e.EmitSteal(context.Background(), next, out))
	require.Len(t, pub.calls, 1)
	assert.Equal(t, "crownclash.events.steal", pub.calls[0].subject)

	var got struct {
		ID        string         `json:"id"`
		Type      string         `json:"type"`
		Round     uint64         `json:"round"`
		Timestamp int64          `json:"timestamp"`
		Data      map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pub.calls[0].data, &got))
	assert.Equal(t, pub.calls[0].msgID, got.ID)
	assert.Equal(t, TypeSteal, got.Type)
	assert.Equal(t, uint64(3), got.Round)
	assert.Equal(t, int64(1_700_000_000), got.Timestamp)
	assert.Equal(t, "0.025088", got.Data["cost"])
	assert.Equal(t, "0.0224", got.Data["refund"])
	assert.Equal(t, key(1).String(), got.Data["paid_holder"])
	assert.Equal(t, "growth", got.Data["phase"])
}

func TestEmitSteal_WarStartedFollows(t *testing.T) {
	pub := &fakePublisher{}
	e := newTestEmitter(pub)

	next := game.State{HitALickMode: true, HitALickPrice: 150_000_000, GrowthSteals: 100}
	out := game.StealOutcome{
		Round:       1,
		Player:      key(2),
		PhaseBefore: game.PhaseGrowth,
		PhaseAfter:  game.PhaseWar,
		Trigger:     game.WarTrigger{Steals: true},
	}
	require.NoError(t, e.EmitSteal(context.Background(), next, out))
	require.Len(t, pub.calls, 2)
	assert.Equal(t, "crownclash.events.war_started", pub.calls[1].subject)
	assert.Contains(t, string(pub.calls[1].data), `"ticket":"0.15"`)
	assert.Contains(t, string(pub.calls[1].data), `"by_growth_steals":true`)
}

func TestEmit_RetriesWithSameID(t *testing.T) {
	pub := &fakePublisher{failures: 2}
	e := newTestEmitter(pub)

	require.NoError(t, e.EmitRoundReset(context.Background(), game.ResetOutcome{Round: 4, Jackpot: 1, NextRound: 5}))
	require.Len(t, pub.calls, 3)
	assert.Equal(t, pub.calls[0].msgID, pub.calls[2].msgID)
	assert.NotEmpty(t, pub.calls[0].msgID)
}

func TestEmit_GivesUp(t *testing.T) {
	pub := &fakePublisher{failures: 10}
	e := newTestEmitter(pub)

	err := e.EmitBurn(context.Background(), 1, game.BurnOutcome{Lamports: 500_000, Tokens: 50_000_000_000})
	assert.Error(t, err)
	assert.Len(t, pub.calls, 3)
}

func TestEmitRoundEnded(t *testing.T) {
	pub := &fakePublisher{}
	e := newTestEmitter(pub)

	out := game.EndOutcome{
		Round:     9,
		Phase:     game.PhaseWar,
		Pot:       10_000_000_000,
		Payouts:   []game.Payout{{Place: 1, Winner: key(3), Amount: 1_500_000_000}, {Place: 2, Winner: key(2), Amount: 600_000_000}},
		Rollover:  7_900_000_000,
		NextRound: 10,
	}
	next := game.State{JackpotBalance: 7_900_000_000}
	require.NoError(t, e.EmitRoundEnded(context.Background(), next, out))

	var got struct {
		Data RoundEndedPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pub.calls[0].data, &got))
	assert.Equal(t, "war", got.Data.Phase)
	require.Len(t, got.Data.Winners, 2)
	assert.Equal(t, "1.5", got.Data.Winners[0].Amount.String())
	assert.Equal(t, uint64(10), got.Data.NextRound)
	assert.Equal(t, "7.9", got.Data.NextJackpot.String())
}

func TestEmitHoldExtended(t *testing.T) {
	pub := &fakePublisher{}
	e := newTestEmitter(pub)

	state := game.State{Round: 2, HitALickEndTime: 1_700_000_013, Crown: &game.Crown{Holder: key(4), Since: 1_700_000_010}}
	require.NoError(t, e.EmitHoldExtended(context.Background(), state))
	assert.Equal(t, "crownclash.events.hold_extended", pub.calls[0].subject)
	assert.Contains(t, string(pub.calls[0].data), key(4).String())

	e.Close()
	assert.True(t, pub.closed)
}

func TestNop(t *testing.T) {
	e := Nop()
	assert.NoError(t, e.Emit(context.Background(), Event{Type: TypeBurn}))
	e.Close()
}
