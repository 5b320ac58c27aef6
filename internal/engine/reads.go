package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
)

// GetState returns the current draft with teams and rounds.
func (e *Engine) GetState(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	return e.store.GetDraft(ctx, draftID)
}

// ListEvents returns the draft's audit log in commit order.
func (e *Engine) ListEvents(ctx context.Context, draftID uuid.UUID) ([]*models.DraftEvent, error) {
	return e.store.ListEvents(ctx, draftID)
}
