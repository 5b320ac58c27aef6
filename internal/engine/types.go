package engine

import (
	"github.com/google/uuid"
)

// Identity is who is performing an action. Authentication happens
// upstream; the engine only checks captaincy and the admin flag.
type Identity struct {
	AccountID string
	IsAdmin   bool
}

// ChoiceType is the dimension a captain settles during the choosing
// phase.
type ChoiceType string

const (
	ChoicePickOrder ChoiceType = "pick_order"
	ChoiceSide      ChoiceType = "side"
)

// Choice values.
const (
	ChoiceFirst   = "first"
	ChoiceSecond  = "second"
	ChoiceRadiant = "radiant"
	ChoiceDire    = "dire"
)

// TeamSeed describes one side when creating a draft.
type TeamSeed struct {
	RosterID  uuid.UUID
	Name      string
	CaptainID string
}

// CreateDraftRequest creates a draft for a game whose two rosters both
// have captains assigned.
type CreateDraftRequest struct {
	GameID       uuid.UUID
	TournamentID uuid.UUID
	TeamA        TeamSeed
	TeamB        TeamSeed
}

// LoopRunner is the tick-broadcaster control surface the engine drives
// on state transitions. Start is idempotent per draft id.
type LoopRunner interface {
	Start(draftID uuid.UUID)
	Stop(draftID uuid.UUID)
}

// noopLoops is used until a real runner is attached.
type noopLoops struct{}

func (noopLoops) Start(uuid.UUID) {}
func (noopLoops) Stop(uuid.UUID)  {}
