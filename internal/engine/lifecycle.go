package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/store"
)

// Create creates the draft for a game, or returns the existing one.
// Both rosters must already have captains assigned. Creates for the
// same game serialize on a per-game lock, so two captains hitting
// create together resolve to one draft.
func (e *Engine) Create(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	if req.TeamA.CaptainID == "" || req.TeamB.CaptainID == "" {
		return nil, ErrNoCaptains
	}

	gameMu := e.lockFor(req.GameID)
	gameMu.Lock()
	defer gameMu.Unlock()

	existing, err := e.store.GetDraftByGame(ctx, req.GameID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := e.clock.Now()
	d := &models.Draft{
		ID:           uuid.New(),
		GameID:       req.GameID,
		TournamentID: req.TournamentID,
		State:        models.DraftStateWaitingForCaptains,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.TeamA = e.newTeam(d.ID, req.TeamA)
	d.TeamB = e.newTeam(d.ID, req.TeamB)

	// Hold the new draft's lock through the first publish so no later
	// operation can broadcast ahead of draft_created.
	mu := e.lockFor(d.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.store.CreateDraft(ctx, d); err != nil {
		// Another process inserted first; the unique game constraint
		// makes the re-read authoritative.
		if errors.Is(err, store.ErrAlreadyExists) {
			return e.store.GetDraftByGame(ctx, req.GameID)
		}
		return nil, err
	}

	ev := e.newEvent(d, nil, models.EventDraftCreated, map[string]any{
		"game_id": req.GameID.String(),
	})
	if err := e.store.AppendEvent(ctx, ev); err != nil {
		return nil, err
	}

	e.publish(ctx, d, []*models.DraftEvent{ev})
	return d, nil
}

func (e *Engine) newTeam(draftID uuid.UUID, seed TeamSeed) *models.DraftTeam {
	return &models.DraftTeam{
		ID:            uuid.New(),
		DraftID:       draftID,
		RosterID:      seed.RosterID,
		Name:          seed.Name,
		CaptainID:     seed.CaptainID,
		ReserveTimeMs: e.cfg.ReserveTimeMs,
	}
}

// SetReady marks the caller's team ready. When both sides are ready
// the draft moves to rolling. Repeating a ready is a no-op.
func (e *Engine) SetReady(ctx context.Context, draftID uuid.UUID, id Identity) (*models.Draft, error) {
	return e.withDraft(ctx, draftID, func(d *models.Draft) ([]*models.DraftEvent, error) {
		if d.State != models.DraftStateWaitingForCaptains {
			return nil, ErrWrongState
		}
		team := d.TeamByCaptain(id.AccountID)
		if team == nil {
			return nil, ErrNotCaptain
		}
		if team.IsReady {
			return nil, nil
		}

		team.IsReady = true
		events := []*models.DraftEvent{
			e.newEvent(d, &team.ID, models.EventCaptainReady, map[string]any{
				"captain_id": id.AccountID,
				"team_name":  team.Name,
			}),
		}

		if d.TeamA.IsReady && d.TeamB.IsReady {
			if err := d.Transition(models.DraftStateRolling); err != nil {
				return nil, err
			}
		}
		return events, nil
	})
}

// TriggerRoll performs the coin flip: one of the two teams is chosen
// uniformly at random as roll winner and the draft moves to choosing.
func (e *Engine) TriggerRoll(ctx context.Context, draftID uuid.UUID, id Identity) (*models.Draft, error) {
	return e.withDraft(ctx, draftID, func(d *models.Draft) ([]*models.DraftEvent, error) {
		if d.State != models.DraftStateRolling {
			return nil, ErrWrongState
		}
		if d.TeamByCaptain(id.AccountID) == nil {
			return nil, ErrNotCaptain
		}

		winner := d.TeamA
		if e.intn(2) == 1 {
			winner = d.TeamB
		}
		winnerID := winner.ID
		d.RollWinnerID = &winnerID
		if err := d.Transition(models.DraftStateChoosing); err != nil {
			return nil, err
		}

		return []*models.DraftEvent{
			e.newEvent(d, &winner.ID, models.EventRollResult, map[string]any{
				"winner_team_id": winner.ID.String(),
				"winner_name":    winner.Name,
				"triggered_by":   id.AccountID,
			}),
		}, nil
	})
}

// Abandon moves the draft to its abandoned terminal state. Only a
// participating captain or an administrator may abandon.
func (e *Engine) Abandon(ctx context.Context, draftID uuid.UUID, id Identity) (*models.Draft, error) {
	d, err := e.withDraft(ctx, draftID, func(d *models.Draft) ([]*models.DraftEvent, error) {
		if d.State.Terminal() {
			return nil, ErrDraftTerminal
		}
		team := d.TeamByCaptain(id.AccountID)
		if team == nil && !id.IsAdmin {
			return nil, ErrNotAuthorized
		}

		if err := d.Transition(models.DraftStateAbandoned); err != nil {
			return nil, err
		}
		var teamID *uuid.UUID
		if team != nil {
			teamID = &team.ID
		}
		return []*models.DraftEvent{
			e.newEvent(d, teamID, models.EventDraftAbandoned, map[string]any{
				"abandoned_by": id.AccountID,
				"is_admin":     id.IsAdmin,
			}),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	e.loops.Stop(draftID)
	return d, nil
}

// Resume restarts a paused draft. Only an explicit resume clears the
// pause; reconnecting alone never does, so a captain cannot stall the
// clock with a disconnect/reconnect cycle. The active round's start
// time shifts forward by the pause duration so paused wall time is not
// charged against anyone's grace or reserve.
func (e *Engine) Resume(ctx context.Context, draftID uuid.UUID, id Identity) (*models.Draft, error) {
	d, err := e.withDraft(ctx, draftID, func(d *models.Draft) ([]*models.DraftEvent, error) {
		if d.State != models.DraftStatePaused {
			return nil, ErrWrongState
		}
		team := d.TeamByCaptain(id.AccountID)
		if team == nil && !id.IsAdmin {
			return nil, ErrNotAuthorized
		}

		var pausedMs int64
		if d.PausedAt != nil {
			pausedMs = e.elapsedMs(*d.PausedAt)
			if round := d.ActiveRound(); round != nil && round.StartedAt != nil {
				shifted := round.StartedAt.Add(e.clock.Now().Sub(*d.PausedAt))
				round.StartedAt = &shifted
			}
		}

		if err := d.Transition(models.DraftStateDrafting); err != nil {
			return nil, err
		}
		d.PausedAt = nil

		var teamID *uuid.UUID
		if team != nil {
			teamID = &team.ID
		}
		return []*models.DraftEvent{
			e.newEvent(d, teamID, models.EventDraftResumed, map[string]any{
				"resumed_by": id.AccountID,
				"paused_ms":  pausedMs,
			}),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	e.loops.Start(draftID)
	return d, nil
}

// Reset rewinds a draft to waiting_for_captains, wiping rounds, events
// and choices. Admin-only; test and demo tooling.
func (e *Engine) Reset(ctx context.Context, draftID uuid.UUID, id Identity) (*models.Draft, error) {
	if !id.IsAdmin {
		return nil, ErrNotAuthorized
	}

	mu := e.lockFor(draftID)
	mu.Lock()
	defer mu.Unlock()

	d, err := e.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	// Reset rewinds history rather than advancing the state machine,
	// so it writes the state directly instead of walking an edge.
	d.State = models.DraftStateWaitingForCaptains
	d.RollWinnerID = nil
	d.PausedAt = nil
	d.Rounds = nil
	d.UpdatedAt = e.clock.Now()
	for _, t := range d.Teams() {
		t.IsReady = false
		t.IsConnected = false
		t.IsFirstPick = nil
		t.IsRadiant = nil
		t.ReserveTimeMs = e.cfg.ReserveTimeMs
	}

	if err := e.store.ResetDraft(ctx, d); err != nil {
		return nil, err
	}
	ev := e.newEvent(d, nil, models.EventDraftReset, map[string]any{
		"reset_by": id.AccountID,
	})
	if err := e.store.AppendEvent(ctx, ev); err != nil {
		return nil, err
	}

	e.loops.Stop(draftID)
	e.publish(ctx, d, []*models.DraftEvent{ev})
	return d, nil
}
