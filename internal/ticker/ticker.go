// Package ticker runs the per-draft tick broadcaster: a background
// loop that republishes timer state once per second while a draft is
// drafting and fires the timeout auto-pick when a captain runs out of
// grace plus reserve.
//
// At most one loop runs per draft id. The registry is an explicit,
// injected supervisor rather than process-global state: Start is an
// atomic check-and-insert that no-ops when a loop is already
// registered, and Stop cancels and deregisters.
package ticker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/engine"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/fanout"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/store"
)

// AutoPicker is what the loop needs from the engine: the locked
// timeout auto-pick.
type AutoPicker interface {
	AutoRandomPick(ctx context.Context, draftID uuid.UUID) (*models.Draft, error)
}

// Supervisor owns the running tick loops.
type Supervisor struct {
	store  store.Store
	picker AutoPicker
	pub    fanout.Publisher
	clock  clockwork.Clock

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	loops map[uuid.UUID]*loopHandle
}

type loopHandle struct {
	cancel context.CancelFunc
}

// NewSupervisor creates a supervisor whose loops stop when parent is
// cancelled.
func NewSupervisor(parent context.Context, st store.Store, picker AutoPicker, pub fanout.Publisher, clock clockwork.Clock) *Supervisor {
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{
		store:  st,
		picker: picker,
		pub:    pub,
		clock:  clock,
		ctx:    ctx,
		cancel: cancel,
		loops:  make(map[uuid.UUID]*loopHandle),
	}
}

// Start launches the tick loop for a draft. A start request while a
// loop is already registered for that draft id is a silent no-op.
func (s *Supervisor) Start(draftID uuid.UUID) {
	s.mu.Lock()
	if _, running := s.loops[draftID]; running {
		s.mu.Unlock()
		return
	}
	loopCtx, loopCancel := context.WithCancel(s.ctx)
	h := &loopHandle{cancel: loopCancel}
	s.loops[draftID] = h
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.deregister(draftID, h)
		s.run(loopCtx, draftID)
	}()

	log.Info().Str("draft_id", draftID.String()).Msg("tick loop started")
}

// Stop cancels and deregisters a draft's loop, if any.
func (s *Supervisor) Stop(draftID uuid.UUID) {
	s.mu.Lock()
	h, ok := s.loops[draftID]
	if ok {
		delete(s.loops, draftID)
	}
	s.mu.Unlock()

	if ok {
		h.cancel()
		log.Info().Str("draft_id", draftID.String()).Msg("tick loop stopped")
	}
}

// Running reports whether a loop is registered for the draft.
func (s *Supervisor) Running(draftID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loops[draftID]
	return ok
}

// Close stops every loop and waits for them to exit.
func (s *Supervisor) Close() {
	s.cancel()
	s.wg.Wait()
}

// deregister removes the handle only if it is still the registered one
// for this draft, so a loop exiting late cannot evict its successor.
func (s *Supervisor) deregister(draftID uuid.UUID, h *loopHandle) {
	s.mu.Lock()
	if cur, ok := s.loops[draftID]; ok && cur == h {
		delete(s.loops, draftID)
	}
	s.mu.Unlock()
	h.cancel()
}

// run is the loop body. It re-detects the draft state every iteration
// because external actions can flip it between ticks, and it never
// lets one bad iteration take the process down.
func (s *Supervisor) run(ctx context.Context, draftID uuid.UUID) {
	tick := s.clock.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.Chan():
		}

		if !s.tickOnce(ctx, draftID) {
			return
		}
	}
}

// tickOnce performs one iteration and reports whether the loop should
// continue. A panic inside an iteration is recovered and terminates
// the loop cleanly; leaving a dead loop registered would wedge timeout
// detection for this draft.
func (s *Supervisor) tickOnce(ctx context.Context, draftID uuid.UUID) (keep bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("draft_id", draftID.String()).
				Any("panic", r).
				Msg("tick iteration panicked; terminating loop")
			keep = false
		}
	}()

	d, err := s.store.GetDraft(ctx, draftID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false
		}
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("tick read failed")
		return true
	}

	if d.State != models.DraftStateDrafting {
		return false
	}
	round := d.ActiveRound()
	if round == nil || round.StartedAt == nil {
		return false
	}

	activeTeam := d.TeamByID(round.TeamID)
	elapsed := s.clock.Now().Sub(*round.StartedAt).Milliseconds()
	graceRemaining := max(int64(0), round.GraceTimeMs-elapsed)

	s.publishTick(ctx, d, round, activeTeam, graceRemaining)

	if elapsed >= round.GraceTimeMs+activeTeam.ReserveTimeMs {
		if _, err := s.picker.AutoRandomPick(ctx, draftID); err != nil {
			// The state can legitimately move under us between the read
			// and the auto-pick; those races resolve on the next tick.
			if errors.Is(err, engine.ErrWrongState) || errors.Is(err, engine.ErrNoActiveRound) {
				return true
			}
			log.Error().Err(err).Str("draft_id", draftID.String()).Msg("timeout auto-pick failed")
		}
	}
	return true
}

func (s *Supervisor) publishTick(ctx context.Context, d *models.Draft, round *models.DraftRound, activeTeam *models.DraftTeam, graceRemaining int64) {
	payload := fanout.TickPayload{
		RoundNumber:      round.RoundNumber,
		ActiveTeamID:     activeTeam.ID.String(),
		GraceRemainingMs: graceRemaining,
		TeamAID:          d.TeamA.ID.String(),
		TeamAReserveMs:   d.TeamA.ReserveTimeMs,
		TeamBID:          d.TeamB.ID.String(),
		TeamBReserveMs:   d.TeamB.ReserveTimeMs,
		TickedAt:         s.clock.Now(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("draft_id", d.ID.String()).Msg("failed to marshal tick")
		return
	}
	env := fanout.NewEnvelope(fanout.KindTick, d.ID, d.TournamentID, "", data, nil)
	if err := s.pub.Publish(ctx, env); err != nil {
		log.Error().Err(err).Str("draft_id", d.ID.String()).Msg("best-effort tick publish failed")
	}
}
