package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/sequence"
)

// SubmitChoice settles one choice dimension (pick order or side) for
// the caller's team, forcing the complementary value onto the
// opponent. The roll winner chooses first; the other captain may only
// act once the winner has made their first choice. When both
// dimensions are settled on both teams, the 24 rounds are built,
// round 1 activates and the draft moves to drafting.
func (e *Engine) SubmitChoice(ctx context.Context, draftID uuid.UUID, id Identity, choiceType ChoiceType, value string) (*models.Draft, error) {
	var started bool

	d, err := e.withDraft(ctx, draftID, func(d *models.Draft) ([]*models.DraftEvent, error) {
		if d.State != models.DraftStateChoosing {
			return nil, ErrWrongState
		}
		team := d.TeamByCaptain(id.AccountID)
		if team == nil {
			return nil, ErrNotCaptain
		}

		if d.RollWinnerID != nil && team.ID != *d.RollWinnerID {
			winner := d.TeamByID(*d.RollWinnerID)
			if winner != nil && winner.IsFirstPick == nil && winner.IsRadiant == nil {
				return nil, ErrRollWinnerFirst
			}
		}

		other := d.Opponent(team)
		switch choiceType {
		case ChoicePickOrder:
			if team.IsFirstPick != nil || other.IsFirstPick != nil {
				return nil, ErrChoiceTaken
			}
			first, err := parsePickOrder(value)
			if err != nil {
				return nil, err
			}
			second := !first
			team.IsFirstPick = &first
			other.IsFirstPick = &second

		case ChoiceSide:
			if team.IsRadiant != nil || other.IsRadiant != nil {
				return nil, ErrChoiceTaken
			}
			radiant, err := parseSide(value)
			if err != nil {
				return nil, err
			}
			dire := !radiant
			team.IsRadiant = &radiant
			other.IsRadiant = &dire

		default:
			return nil, fmt.Errorf("unknown choice type %q", choiceType)
		}

		events := []*models.DraftEvent{
			e.newEvent(d, &team.ID, models.EventChoiceMade, map[string]any{
				"captain_id":  id.AccountID,
				"choice_type": string(choiceType),
				"value":       value,
			}),
		}

		if !d.ChoicesComplete() {
			return events, nil
		}

		// Both dimensions settled: materialize the turn sequence and
		// open round 1 within the same locked operation.
		first := d.FirstPickTeam()
		second := d.SecondPickTeam()
		rounds := sequence.BuildRounds(d.ID, first.ID, second.ID, e.cfg.GraceTimeMs)
		if err := e.store.InsertRounds(ctx, d.ID, rounds); err != nil {
			return nil, err
		}
		d.Rounds = rounds

		now := e.clock.Now()
		r1 := d.Rounds[0]
		r1.State = models.RoundStateActive
		r1.StartedAt = &now

		if err := d.Transition(models.DraftStateDrafting); err != nil {
			return nil, err
		}
		started = true

		events = append(events, e.newEvent(d, &r1.TeamID, models.EventRoundStarted, map[string]any{
			"round_number": r1.RoundNumber,
			"action_type":  string(r1.ActionType),
		}))
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	if started {
		e.loops.Start(draftID)
	}
	return d, nil
}

func parsePickOrder(value string) (bool, error) {
	switch value {
	case ChoiceFirst:
		return true, nil
	case ChoiceSecond:
		return false, nil
	default:
		return false, fmt.Errorf("invalid pick order %q", value)
	}
}

func parseSide(value string) (bool, error) {
	switch value {
	case ChoiceRadiant:
		return true, nil
	case ChoiceDire:
		return false, nil
	default:
		return false, fmt.Errorf("invalid side %q", value)
	}
}
