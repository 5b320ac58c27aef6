package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
)

// HandleConnect records a captain's connection. A reconnect while the
// draft is paused does NOT resume it; only an explicit Resume does.
func (e *Engine) HandleConnect(ctx context.Context, draftID uuid.UUID, captainID string) error {
	_, err := e.withDraft(ctx, draftID, func(d *models.Draft) ([]*models.DraftEvent, error) {
		team := d.TeamByCaptain(captainID)
		if team == nil {
			return nil, ErrNotCaptain
		}

		team.IsConnected = true
		return []*models.DraftEvent{
			e.newEvent(d, &team.ID, models.EventCaptainConnected, map[string]any{
				"captain_id": captainID,
			}),
		}, nil
	})
	return err
}

// HandleDisconnect records a genuine captain disconnect. The presence
// coordinator filters out kicked/superseded connections before calling
// this. A disconnect mid-drafting pauses the draft; it never pauses
// again from paused, so a flapping connection cannot stack pauses.
func (e *Engine) HandleDisconnect(ctx context.Context, draftID uuid.UUID, captainID string) error {
	_, err := e.withDraft(ctx, draftID, func(d *models.Draft) ([]*models.DraftEvent, error) {
		team := d.TeamByCaptain(captainID)
		if team == nil {
			return nil, ErrNotCaptain
		}

		team.IsConnected = false
		events := []*models.DraftEvent{
			e.newEvent(d, &team.ID, models.EventCaptainDisconnected, map[string]any{
				"captain_id": captainID,
			}),
		}

		if d.State == models.DraftStateDrafting {
			now := e.clock.Now()
			if err := d.Transition(models.DraftStatePaused); err != nil {
				return nil, err
			}
			d.PausedAt = &now
			events = append(events, e.newEvent(d, &team.ID, models.EventDraftPaused, map[string]any{
				"captain_id": captainID,
			}))
		}
		return events, nil
	})
	return err
}
