// Package fanout is the publish/subscribe boundary. State mutations
// push envelopes through a Publisher; WebSocket sessions and other
// subscribers receive them per draft id and per tournament id.
// Publishing is best-effort: a failed publish is logged by the caller
// and never rolls back the state change it describes.
package fanout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two envelope flavors on the wire.
type Kind string

const (
	KindDraftEvent Kind = "draft_event"
	KindTick       Kind = "tick"
)

// Envelope is the wire format for every published message.
type Envelope struct {
	ID           string          `json:"id"`
	Kind         Kind            `json:"kind"`
	DraftID      string          `json:"draft_id"`
	TournamentID string          `json:"tournament_id"`
	EventType    string          `json:"event_type,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	// Snapshot carries the full current draft state so subscribers can
	// skip a follow-up read.
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
}

// NewEnvelope builds an envelope with a fresh id and timestamp.
func NewEnvelope(kind Kind, draftID, tournamentID uuid.UUID, eventType string, payload, snapshot json.RawMessage) Envelope {
	return Envelope{
		ID:           uuid.New().String(),
		Kind:         kind,
		DraftID:      draftID.String(),
		TournamentID: tournamentID.String(),
		EventType:    eventType,
		Timestamp:    time.Now(),
		Payload:      payload,
		Snapshot:     snapshot,
	}
}

// Publisher fans an envelope out to draft- and tournament-scoped
// subscribers.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// TickPayload is the per-second timer broadcast.
type TickPayload struct {
	RoundNumber      int       `json:"round_number"`
	ActiveTeamID     string    `json:"active_team_id"`
	GraceRemainingMs int64     `json:"grace_remaining_ms"`
	TeamAID          string    `json:"team_a_id"`
	TeamAReserveMs   int64     `json:"team_a_reserve_ms"`
	TeamBID          string    `json:"team_b_id"`
	TeamBReserveMs   int64     `json:"team_b_reserve_ms"`
	TickedAt         time.Time `json:"ticked_at"`
}
