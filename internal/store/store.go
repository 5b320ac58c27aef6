// Package store is the durable record of drafts, teams, rounds and
// the audit log. Callers serialize access per draft id; the store's
// job is atomicity of each write, not cross-call ordering.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
)

// ErrNotFound is returned when a draft does not exist.
var ErrNotFound = errors.New("draft not found")

// ErrAlreadyExists is returned by CreateDraft when the game already
// has a draft. The caller re-reads by game id and uses that one.
var ErrAlreadyExists = errors.New("draft already exists for game")

// Store persists draft state. SaveDraft writes the draft, both teams,
// every mutated round and the given audit events atomically, so a
// subscriber reading after a broadcast only ever sees committed state.
type Store interface {
	CreateDraft(ctx context.Context, d *models.Draft) error
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	GetDraftByGame(ctx context.Context, gameID uuid.UUID) (*models.Draft, error)
	SaveDraft(ctx context.Context, d *models.Draft, events ...*models.DraftEvent) error

	// InsertRounds bulk-inserts the full round list for a draft in one
	// atomic write.
	InsertRounds(ctx context.Context, draftID uuid.UUID, rounds []*models.DraftRound) error

	AppendEvent(ctx context.Context, ev *models.DraftEvent) error
	ListEvents(ctx context.Context, draftID uuid.UUID) ([]*models.DraftEvent, error)

	// ResetDraft deletes the draft's rounds and events and saves the
	// given (rewound) draft state. Test and demo tooling only.
	ResetDraft(ctx context.Context, d *models.Draft) error
}
