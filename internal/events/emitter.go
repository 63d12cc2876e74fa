package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fystack/crown-clash/internal/game"
	"github.com/fystack/crown-clash/pkg/clock"
	"github.com/fystack/crown-clash/pkg/retry"
)

// Publisher delivers one encoded event. msgID is stable across retries of
// the same event so the broker can drop duplicates.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte, msgID string) error
	Close()
}

type Emitter interface {
	EmitSteal(ctx context.Context, next game.State, out game.StealOutcome) error
	EmitRoundEnded(ctx context.Context, next game.State, out game.EndOutcome) error
	EmitRoundReset(ctx context.Context, out game.ResetOutcome) error
	EmitBurn(ctx context.Context, round uint64, out game.BurnOutcome) error
	EmitHoldExtended(ctx context.Context, state game.State) error
	Emit(ctx context.Context, event Event) error
	Close()
}

type Option func(*emitter)

func WithRetry(attempts int, interval time.Duration) Option {
	return func(e *emitter) {
		e.attempts = attempts
		e.interval = interval
	}
}

func WithClock(c clock.Clock) Option {
	return func(e *emitter) { e.clock = c }
}

type emitter struct {
	pub      Publisher
	subject  string
	attempts int
	interval time.Duration
	clock    clock.Clock
}

// NewEmitter publishes every event to "<subject>.<type>".
func NewEmitter(pub Publisher, subject string, opts ...Option) Emitter {
	e := &emitter{
		pub:      pub,
		subject:  subject,
		attempts: retry.DefaultMaxAttempts,
		interval: retry.DefaultInterval,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *emitter) EmitSteal(ctx context.Context, next game.State, out game.StealOutcome) error {
	if err := e.Emit(ctx, Event{Type: TypeSteal, Round: out.Round, Data: stealPayload(next, out)}); err != nil {
		return err
	}
	if !out.EnteredWar() {
		return nil
	}
	return e.Emit(ctx, Event{Type: TypeWarStarted, Round: out.Round, Data: WarStartedPayload{
		ByGrowthSteals: out.Trigger.Steals,
		ByPrice:        out.Trigger.Price,
		Ticket:         SOL(next.HitALickPrice),
		GrowthSteals:   next.GrowthSteals,
	}})
}

func (e *emitter) EmitRoundEnded(ctx context.Context, next game.State, out game.EndOutcome) error {
	return e.Emit(ctx, Event{Type: TypeRoundEnded, Round: out.Round, Data: roundEndedPayload(next, out)})
}

func (e *emitter) EmitRoundReset(ctx context.Context, out game.ResetOutcome) error {
	return e.Emit(ctx, Event{Type: TypeRoundReset, Round: out.Round, Data: RoundResetPayload{
		MergedPending: SOL(out.MergedPending),
		Jackpot:       SOL(out.Jackpot),
		NextRound:     out.NextRound,
	}})
}

func (e *emitter) EmitBurn(ctx context.Context, round uint64, out game.BurnOutcome) error {
	return e.Emit(ctx, Event{Type: TypeBurn, Round: round, Data: BurnPayload{
		Lamports:    SOL(out.Lamports),
		Tokens:      out.Tokens,
		TotalBurned: out.TotalBurned,
	}})
}

func (e *emitter) EmitHoldExtended(ctx context.Context, state game.State) error {
	p := HoldExtendedPayload{WarEndTime: state.HitALickEndTime}
	if state.Crown != nil {
		p.Holder = state.Crown.Holder.String()
	}
	return e.Emit(ctx, Event{Type: TypeHoldExtended, Round: state.Round, Data: p})
}

func (e *emitter) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp == 0 {
		event.Timestamp = e.clock.Now().UTC().Unix()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	subject := e.subject + "." + event.Type
	return retry.Constant(ctx, func() error {
		return e.pub.Publish(ctx, subject, data, event.ID)
	}, e.interval, e.attempts)
}

func (e *emitter) Close() {
	if e.pub != nil {
		e.pub.Close()
	}
}

type nopEmitter struct{}

// Nop discards every event. Used when publishing is switched off.
func Nop() Emitter { return nopEmitter{} }

func (nopEmitter) EmitSteal(context.Context, game.State, game.StealOutcome) error    { return nil }
func (nopEmitter) EmitRoundEnded(context.Context, game.State, game.EndOutcome) error { return nil }
func (nopEmitter) EmitRoundReset(context.Context, game.ResetOutcome) error           { return nil }
func (nopEmitter) EmitBurn(context.Context, uint64, game.BurnOutcome) error          { return nil }
func (nopEmitter) EmitHoldExtended(context.Context, game.State) error                { return nil }
func (nopEmitter) Emit(context.Context, Event) error                                 { return nil }
func (nopEmitter) Close()                                                            {}
