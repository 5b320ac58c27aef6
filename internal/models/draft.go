package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DraftState defines the lifecycle state of a hero draft.
type DraftState string

const (
	DraftStateWaitingForCaptains DraftState = "WAITING_FOR_CAPTAINS"
	DraftStateRolling            DraftState = "ROLLING"
	DraftStateChoosing           DraftState = "CHOOSING"
	DraftStateDrafting           DraftState = "DRAFTING"
	DraftStatePaused             DraftState = "PAUSED"
	DraftStateCompleted          DraftState = "COMPLETED"
	DraftStateAbandoned          DraftState = "ABANDONED"
)

// Terminal reports whether no further transitions are legal from s.
func (s DraftState) Terminal() bool {
	return s == DraftStateCompleted || s == DraftStateAbandoned
}

// legalTransitions is the closed edge set of the draft state machine.
// Abandoned is reachable from every non-terminal state and is handled
// separately in CanTransition.
var legalTransitions = map[DraftState][]DraftState{
	DraftStateWaitingForCaptains: {DraftStateRolling},
	DraftStateRolling:            {DraftStateChoosing},
	DraftStateChoosing:           {DraftStateDrafting},
	DraftStateDrafting:           {DraftStatePaused, DraftStateCompleted},
	DraftStatePaused:             {DraftStateDrafting},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to DraftState) bool {
	if to == DraftStateAbandoned {
		return !from.Terminal()
	}
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrIllegalTransition is returned by Transition for a state write
// that is not an edge in the transition table.
var ErrIllegalTransition = errors.New("illegal draft state transition")

// Transition moves the draft to next if the edge is legal, leaving
// the state untouched otherwise. All lifecycle state writes go
// through here so the edge set is the enforcement, not documentation.
func (d *Draft) Transition(next DraftState) error {
	if !CanTransition(d.State, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, d.State, next)
	}
	d.State = next
	return nil
}

// Draft represents one Captain's Mode hero draft for a single game.
// A draft always owns exactly two teams; TeamA and TeamB are stable
// slots, not pick-order positions.
type Draft struct {
	ID           uuid.UUID     `json:"id"`
	GameID       uuid.UUID     `json:"game_id"`
	TournamentID uuid.UUID     `json:"tournament_id"`
	State        DraftState    `json:"state"`
	TeamA        *DraftTeam    `json:"team_a"`
	TeamB        *DraftTeam    `json:"team_b"`
	RollWinnerID *uuid.UUID    `json:"roll_winner_id,omitempty"`
	Rounds       []*DraftRound `json:"rounds,omitempty"`
	PausedAt     *time.Time    `json:"paused_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Teams returns both team slots in stable order.
func (d *Draft) Teams() [2]*DraftTeam {
	return [2]*DraftTeam{d.TeamA, d.TeamB}
}

// TeamByID returns the team slot with the given id, or nil.
func (d *Draft) TeamByID(id uuid.UUID) *DraftTeam {
	switch {
	case d.TeamA != nil && d.TeamA.ID == id:
		return d.TeamA
	case d.TeamB != nil && d.TeamB.ID == id:
		return d.TeamB
	default:
		return nil
	}
}

// TeamByCaptain returns the team slot captained by the given account, or nil.
func (d *Draft) TeamByCaptain(captainID string) *DraftTeam {
	switch {
	case d.TeamA != nil && d.TeamA.CaptainID == captainID:
		return d.TeamA
	case d.TeamB != nil && d.TeamB.CaptainID == captainID:
		return d.TeamB
	default:
		return nil
	}
}

// Opponent returns the other team slot relative to team.
func (d *Draft) Opponent(team *DraftTeam) *DraftTeam {
	if team == nil {
		return nil
	}
	if d.TeamA != nil && d.TeamA.ID == team.ID {
		return d.TeamB
	}
	return d.TeamA
}

// FirstPickTeam returns the team with first pick, or nil until the
// choosing phase has settled pick order.
func (d *Draft) FirstPickTeam() *DraftTeam {
	for _, t := range d.Teams() {
		if t != nil && t.IsFirstPick != nil && *t.IsFirstPick {
			return t
		}
	}
	return nil
}

// SecondPickTeam returns the team without first pick, or nil until the
// choosing phase has settled pick order.
func (d *Draft) SecondPickTeam() *DraftTeam {
	for _, t := range d.Teams() {
		if t != nil && t.IsFirstPick != nil && !*t.IsFirstPick {
			return t
		}
	}
	return nil
}

// ActiveRound returns the single active round, or nil.
func (d *Draft) ActiveRound() *DraftRound {
	for _, r := range d.Rounds {
		if r.State == RoundStateActive {
			return r
		}
	}
	return nil
}

// NextPlannedRound returns the lowest-numbered planned round, or nil.
func (d *Draft) NextPlannedRound() *DraftRound {
	var next *DraftRound
	for _, r := range d.Rounds {
		if r.State != RoundStatePlanned {
			continue
		}
		if next == nil || r.RoundNumber < next.RoundNumber {
			next = r
		}
	}
	return next
}

// UsedHeroIDs returns every hero id already consumed by a completed
// round, in round order.
func (d *Draft) UsedHeroIDs() []int {
	var used []int
	for _, r := range d.Rounds {
		if r.State == RoundStateCompleted && r.HeroID != nil {
			used = append(used, *r.HeroID)
		}
	}
	return used
}

// ChoicesComplete reports whether both teams have both pick-order and
// side settled, which is the choosing -> drafting trigger.
func (d *Draft) ChoicesComplete() bool {
	for _, t := range d.Teams() {
		if t == nil || t.IsFirstPick == nil || t.IsRadiant == nil {
			return false
		}
	}
	return true
}
