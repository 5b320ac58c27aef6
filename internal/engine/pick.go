package engine

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/heroes"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
)

// SubmitPick applies the caller's hero selection to the active round.
// Reserve time is only drawn once the round's grace allowance is
// exceeded; completion activates the next planned round or finishes
// the draft.
func (e *Engine) SubmitPick(ctx context.Context, draftID uuid.UUID, id Identity, heroID int) (*models.Draft, error) {
	var completed bool

	d, err := e.withDraft(ctx, draftID, func(d *models.Draft) ([]*models.DraftEvent, error) {
		if d.State != models.DraftStateDrafting {
			return nil, ErrWrongState
		}
		team := d.TeamByCaptain(id.AccountID)
		if team == nil {
			return nil, ErrNotCaptain
		}

		events, done, err := e.applyPick(d, team, heroID, nil)
		if err != nil {
			return nil, err
		}
		completed = done
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		e.loops.Stop(draftID)
	}
	return d, nil
}

// AutoRandomPick is the timeout path: it selects a uniformly random
// available hero for the active round's team and applies it. Exhausting
// the catalog before round 24 is a data-integrity bug surfaced as
// ErrNoHeroesLeft, never a crash.
func (e *Engine) AutoRandomPick(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	var completed bool

	d, err := e.withDraft(ctx, draftID, func(d *models.Draft) ([]*models.DraftEvent, error) {
		if d.State != models.DraftStateDrafting {
			return nil, ErrWrongState
		}
		round := d.ActiveRound()
		if round == nil {
			return nil, ErrNoActiveRound
		}
		team := d.TeamByID(round.TeamID)

		available := heroes.Available(d.UsedHeroIDs())
		if len(available) == 0 {
			return nil, ErrNoHeroesLeft
		}
		heroID := available[e.intn(len(available))]

		timeoutEv := e.newEvent(d, &team.ID, models.EventRoundTimeout, map[string]any{
			"round_number": round.RoundNumber,
			"hero_id":      heroID,
		})

		events, done, err := e.applyPick(d, team, heroID, timeoutEv)
		if err != nil {
			return nil, err
		}
		completed = done
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		e.loops.Stop(draftID)
	}
	return d, nil
}

// applyPick validates and applies a hero selection for team on the
// active round, mutating d in place. The optional lead event (round
// timeout) is prepended so the audit log reads in causal order.
// Returns the events to record and whether the draft completed.
func (e *Engine) applyPick(d *models.Draft, team *models.DraftTeam, heroID int, lead *models.DraftEvent) ([]*models.DraftEvent, bool, error) {
	round := d.ActiveRound()
	if round == nil {
		return nil, false, ErrNoActiveRound
	}
	if round.TeamID != team.ID {
		return nil, false, ErrNotYourTurn
	}
	if !heroes.Valid(heroID) {
		return nil, false, ErrUnknownHero
	}
	if slices.Contains(d.UsedHeroIDs(), heroID) {
		return nil, false, ErrHeroUsed
	}

	now := e.clock.Now()
	var elapsed int64
	if round.StartedAt != nil {
		elapsed = e.elapsedMs(*round.StartedAt)
	}
	graceUsed := min(elapsed, round.GraceTimeMs)
	reserveUsed := max(int64(0), elapsed-round.GraceTimeMs)
	team.ReserveTimeMs = max(int64(0), team.ReserveTimeMs-reserveUsed)

	round.State = models.RoundStateCompleted
	round.HeroID = &heroID
	round.CompletedAt = &now

	var events []*models.DraftEvent
	if lead != nil {
		events = append(events, lead)
	}
	events = append(events, e.newEvent(d, &team.ID, models.EventHeroSelected, map[string]any{
		"round_number":    round.RoundNumber,
		"hero_id":         heroID,
		"action_type":     string(round.ActionType),
		"elapsed_ms":      elapsed,
		"grace_used_ms":   graceUsed,
		"reserve_used_ms": reserveUsed,
	}))

	next := d.NextPlannedRound()
	if next == nil {
		if err := d.Transition(models.DraftStateCompleted); err != nil {
			return nil, false, err
		}
		events = append(events, e.newEvent(d, nil, models.EventDraftCompleted, map[string]any{
			"rounds": len(d.Rounds),
		}))
		return events, true, nil
	}

	next.State = models.RoundStateActive
	next.StartedAt = &now
	events = append(events, e.newEvent(d, &next.TeamID, models.EventRoundStarted, map[string]any{
		"round_number": next.RoundNumber,
		"action_type":  string(next.ActionType),
	}))
	return events, false, nil
}

// AvailableHeroes returns the hero catalog minus everything already
// picked or banned in this draft, in catalog order.
func (e *Engine) AvailableHeroes(ctx context.Context, draftID uuid.UUID) ([]int, error) {
	d, err := e.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return heroes.Available(d.UsedHeroIDs()), nil
}
