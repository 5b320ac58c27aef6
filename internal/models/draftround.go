package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionType is what a round asks its owning team to do.
type ActionType string

const (
	ActionBan  ActionType = "ban"
	ActionPick ActionType = "pick"
)

// RoundState defines the lifecycle of a single draft round.
type RoundState string

const (
	RoundStatePlanned   RoundState = "planned"
	RoundStateActive    RoundState = "active"
	RoundStateCompleted RoundState = "completed"
)

// DefaultGraceTimeMs is the per-round allowance that does not draw
// from reserve time.
const DefaultGraceTimeMs = 30000

// DraftRound is one action slot in the 24-step Captain's Mode
// sequence. Rounds are materialized in bulk once both teams' choices
// are known and complete in strictly increasing RoundNumber order.
type DraftRound struct {
	ID          uuid.UUID  `json:"id"`
	DraftID     uuid.UUID  `json:"draft_id"`
	TeamID      uuid.UUID  `json:"team_id"`
	RoundNumber int        `json:"round_number"` // 1..24
	ActionType  ActionType `json:"action_type"`
	State       RoundState `json:"state"`
	HeroID      *int       `json:"hero_id,omitempty"`
	GraceTimeMs int64      `json:"grace_time_ms"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
