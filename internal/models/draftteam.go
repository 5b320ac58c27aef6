package models

import (
	"github.com/google/uuid"
)

// DefaultReserveTimeMs is each side's starting reserve time bank.
const DefaultReserveTimeMs = 90000

// DraftTeam represents one side of a hero draft. Exactly two exist per
// draft. CaptainID is a read-only projection of the roster's captain;
// the roster itself lives outside this service.
type DraftTeam struct {
	ID            uuid.UUID `json:"id"`
	DraftID       uuid.UUID `json:"draft_id"`
	RosterID      uuid.UUID `json:"roster_id"`
	Name          string    `json:"name"`
	CaptainID     string    `json:"captain_id"`
	IsReady       bool      `json:"is_ready"`
	IsConnected   bool      `json:"is_connected"`
	IsFirstPick   *bool     `json:"is_first_pick,omitempty"`
	IsRadiant     *bool     `json:"is_radiant,omitempty"`
	ReserveTimeMs int64     `json:"reserve_time_ms"`
}
