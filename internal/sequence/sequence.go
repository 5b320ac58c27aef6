// Package sequence holds the fixed Captain's Mode turn table and
// materializes the 24 rounds of a draft from it.
package sequence

import (
	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
)

// Slot designates which side acts in a step, relative to pick order.
type Slot string

const (
	FirstPick  Slot = "first"
	SecondPick Slot = "second"
)

// Step is one entry in the Captain's Mode turn table.
type Step struct {
	Slot   Slot
	Action models.ActionType
}

// TurnOrder is the 2024 Captain's Mode ban/pick sequence: 14 bans and
// 10 picks across three ban phases and three pick phases. The
// first-pick side bans 6 times and picks 5; the second-pick side bans
// 8 times and picks 5.
var TurnOrder = []Step{
	// Ban phase 1
	{FirstPick, models.ActionBan},
	{FirstPick, models.ActionBan},
	{SecondPick, models.ActionBan},
	{SecondPick, models.ActionBan},
	{FirstPick, models.ActionBan},
	{SecondPick, models.ActionBan},
	{SecondPick, models.ActionBan},
	// Pick phase 1
	{FirstPick, models.ActionPick},
	{SecondPick, models.ActionPick},
	// Ban phase 2
	{SecondPick, models.ActionBan},
	{FirstPick, models.ActionBan},
	{SecondPick, models.ActionBan},
	// Pick phase 2
	{SecondPick, models.ActionPick},
	{FirstPick, models.ActionPick},
	{FirstPick, models.ActionPick},
	{SecondPick, models.ActionPick},
	{SecondPick, models.ActionPick},
	{FirstPick, models.ActionPick},
	// Ban phase 3
	{FirstPick, models.ActionBan},
	{SecondPick, models.ActionBan},
	{FirstPick, models.ActionBan},
	{SecondPick, models.ActionBan},
	// Pick phase 3
	{FirstPick, models.ActionPick},
	{SecondPick, models.ActionPick},
}

// BuildRounds materializes the full round list for a draft, in
// RoundNumber order 1..len(TurnOrder), all planned. The caller
// activates round 1 once the rounds are stored.
func BuildRounds(draftID, firstTeamID, secondTeamID uuid.UUID, graceTimeMs int64) []*models.DraftRound {
	rounds := make([]*models.DraftRound, 0, len(TurnOrder))
	for i, step := range TurnOrder {
		teamID := firstTeamID
		if step.Slot == SecondPick {
			teamID = secondTeamID
		}
		rounds = append(rounds, &models.DraftRound{
			ID:          uuid.New(),
			DraftID:     draftID,
			TeamID:      teamID,
			RoundNumber: i + 1,
			ActionType:  step.Action,
			State:       models.RoundStatePlanned,
			GraceTimeMs: graceTimeMs,
		})
	}
	return rounds
}
