package sequence

import (
	"testing"

	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
)

func TestTurnOrderComposition(t *testing.T) {
	if len(TurnOrder) != 24 {
		t.Fatalf("got %d steps, want 24", len(TurnOrder))
	}

	counts := map[Slot]map[models.ActionType]int{
		FirstPick:  {},
		SecondPick: {},
	}
	for _, step := range TurnOrder {
		counts[step.Slot][step.Action]++
	}

	cases := []struct {
		name   string
		slot   Slot
		action models.ActionType
		want   int
	}{
		{name: "first pick side bans", slot: FirstPick, action: models.ActionBan, want: 6},
		{name: "first pick side picks", slot: FirstPick, action: models.ActionPick, want: 5},
		{name: "second pick side bans", slot: SecondPick, action: models.ActionBan, want: 8},
		{name: "second pick side picks", slot: SecondPick, action: models.ActionPick, want: 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := counts[tc.slot][tc.action]; got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTurnOrderOpensWithDoubleBanAndEndsWithPicks(t *testing.T) {
	if TurnOrder[0].Slot != FirstPick || TurnOrder[0].Action != models.ActionBan {
		t.Fatalf("step 1 = %+v, want first-pick ban", TurnOrder[0])
	}
	if TurnOrder[1].Slot != FirstPick || TurnOrder[1].Action != models.ActionBan {
		t.Fatalf("step 2 = %+v, want first-pick ban", TurnOrder[1])
	}
	last := TurnOrder[len(TurnOrder)-1]
	if last.Slot != SecondPick || last.Action != models.ActionPick {
		t.Fatalf("final step = %+v, want second-pick pick", last)
	}
}

func TestBuildRounds(t *testing.T) {
	draftID := uuid.New()
	firstID := uuid.New()
	secondID := uuid.New()

	rounds := BuildRounds(draftID, firstID, secondID, 30000)

	if len(rounds) != len(TurnOrder) {
		t.Fatalf("got %d rounds, want %d", len(rounds), len(TurnOrder))
	}
	for i, r := range rounds {
		if r.RoundNumber != i+1 {
			t.Fatalf("round %d has number %d", i, r.RoundNumber)
		}
		if r.State != models.RoundStatePlanned {
			t.Fatalf("round %d state = %s, want planned", r.RoundNumber, r.State)
		}
		if r.DraftID != draftID {
			t.Fatalf("round %d has wrong draft id", r.RoundNumber)
		}
		if r.GraceTimeMs != 30000 {
			t.Fatalf("round %d grace = %d, want 30000", r.RoundNumber, r.GraceTimeMs)
		}

		wantTeam := firstID
		if TurnOrder[i].Slot == SecondPick {
			wantTeam = secondID
		}
		if r.TeamID != wantTeam {
			t.Fatalf("round %d assigned to wrong team", r.RoundNumber)
		}
		if r.ActionType != TurnOrder[i].Action {
			t.Fatalf("round %d action = %s, want %s", r.RoundNumber, r.ActionType, TurnOrder[i].Action)
		}
	}
}
