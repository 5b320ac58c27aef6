// Package engine owns the draft state machine and the pick/ban rules.
// Every mutation of a draft runs under a per-draft mutex, so a human
// action and the tick loop's timeout check can never interleave their
// read-modify-write cycles. Broadcasts go out after the store write
// commits but before the lock is released, so a draft's envelopes
// leave in commit order. They remain best-effort.
package engine

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/fanout"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/store"
)

// Config holds the engine's timing knobs.
type Config struct {
	GraceTimeMs   int64
	ReserveTimeMs int64
}

// DefaultConfig returns the Captain's Mode defaults: 30s grace per
// round, 90s reserve per side.
func DefaultConfig() Config {
	return Config{
		GraceTimeMs:   models.DefaultGraceTimeMs,
		ReserveTimeMs: models.DefaultReserveTimeMs,
	}
}

// Engine executes draft operations against the store and publishes the
// resulting events.
type Engine struct {
	store store.Store
	pub   fanout.Publisher
	clock clockwork.Clock
	cfg   Config
	loops LoopRunner

	rngMu sync.Mutex
	rng   *rand.Rand

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

// New creates an engine. Attach the tick-loop runner with SetLoops
// before serving traffic; until then loop control is a no-op.
func New(st store.Store, pub fanout.Publisher, clock clockwork.Clock, cfg Config) *Engine {
	return &Engine{
		store: st,
		pub:   pub,
		clock: clock,
		cfg:   cfg,
		loops: noopLoops{},
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// SetLoops attaches the tick-broadcaster runner. Called once during
// wiring; the engine and the runner reference each other, so one side
// has to be attached late.
func (e *Engine) SetLoops(loops LoopRunner) {
	e.loops = loops
}

// lockFor returns the mutex guarding a key, creating it on first use.
// Keys are draft ids, plus game ids while Create resolves a game to
// its single draft. Locks are never removed; the map is bounded by
// the number of drafts and games this process has touched.
func (e *Engine) lockFor(draftID uuid.UUID) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	mu, ok := e.locks[draftID]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[draftID] = mu
	}
	return mu
}

// withDraft runs fn with the draft loaded under its per-draft lock,
// saves the mutated draft plus the events fn returns, and broadcasts
// those events before the lock is released. Publishing inside the
// critical section pins a draft's broadcast order to its commit
// order; two operations on one draft can never cross on the wire.
func (e *Engine) withDraft(ctx context.Context, draftID uuid.UUID, fn func(d *models.Draft) ([]*models.DraftEvent, error)) (*models.Draft, error) {
	mu := e.lockFor(draftID)
	mu.Lock()
	defer mu.Unlock()

	d, err := e.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	events, err := fn(d)
	if err != nil {
		return nil, err
	}

	d.UpdatedAt = e.clock.Now()
	if err := e.store.SaveDraft(ctx, d, events...); err != nil {
		return nil, err
	}
	e.publish(ctx, d, events)
	return d, nil
}

// newEvent builds an audit event stamped with the engine clock.
func (e *Engine) newEvent(d *models.Draft, teamID *uuid.UUID, typ models.EventType, meta map[string]any) *models.DraftEvent {
	return &models.DraftEvent{
		ID:        uuid.New(),
		DraftID:   d.ID,
		TeamID:    teamID,
		Type:      typ,
		Meta:      meta,
		CreatedAt: e.clock.Now(),
	}
}

// publish fans out one envelope per event, each carrying a full state
// snapshot. Failures are logged and swallowed: the store is the source
// of truth and the broadcast is best-effort.
func (e *Engine) publish(ctx context.Context, d *models.Draft, events []*models.DraftEvent) {
	if len(events) == 0 {
		return
	}

	snapshot, err := json.Marshal(d)
	if err != nil {
		log.Error().Err(err).Str("draft_id", d.ID.String()).Msg("failed to marshal draft snapshot")
		snapshot = nil
	}

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Error().Err(err).Str("draft_id", d.ID.String()).Msg("failed to marshal draft event")
			continue
		}
		env := fanout.NewEnvelope(fanout.KindDraftEvent, d.ID, d.TournamentID, string(ev.Type), payload, snapshot)
		if err := e.pub.Publish(ctx, env); err != nil {
			log.Error().
				Err(err).
				Str("draft_id", d.ID.String()).
				Str("event_type", string(ev.Type)).
				Msg("best-effort publish failed")
		}
	}
}

// intn returns a uniform random int in [0, n) from the engine's
// guarded source.
func (e *Engine) intn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

// elapsedMs returns whole milliseconds since t on the engine clock.
func (e *Engine) elapsedMs(t time.Time) int64 {
	return e.clock.Now().Sub(t).Milliseconds()
}
