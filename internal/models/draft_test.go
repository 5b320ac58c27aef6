package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from DraftState
		to   DraftState
		want bool
	}{
		{name: "waiting to rolling", from: DraftStateWaitingForCaptains, to: DraftStateRolling, want: true},
		{name: "rolling to choosing", from: DraftStateRolling, to: DraftStateChoosing, want: true},
		{name: "choosing to drafting", from: DraftStateChoosing, to: DraftStateDrafting, want: true},
		{name: "drafting to paused", from: DraftStateDrafting, to: DraftStatePaused, want: true},
		{name: "drafting to completed", from: DraftStateDrafting, to: DraftStateCompleted, want: true},
		{name: "paused to drafting", from: DraftStatePaused, to: DraftStateDrafting, want: true},
		{name: "waiting to drafting skips phases", from: DraftStateWaitingForCaptains, to: DraftStateDrafting, want: false},
		{name: "choosing back to rolling", from: DraftStateChoosing, to: DraftStateRolling, want: false},
		{name: "paused to completed", from: DraftStatePaused, to: DraftStateCompleted, want: false},
		{name: "abandon from waiting", from: DraftStateWaitingForCaptains, to: DraftStateAbandoned, want: true},
		{name: "abandon from paused", from: DraftStatePaused, to: DraftStateAbandoned, want: true},
		{name: "abandon from completed", from: DraftStateCompleted, to: DraftStateAbandoned, want: false},
		{name: "resurrect abandoned", from: DraftStateAbandoned, to: DraftStateDrafting, want: false},
		{name: "leave completed", from: DraftStateCompleted, to: DraftStateDrafting, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []DraftState{DraftStateCompleted, DraftStateAbandoned} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []DraftState{DraftStateWaitingForCaptains, DraftStateRolling, DraftStateChoosing, DraftStateDrafting, DraftStatePaused} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func twoTeamDraft() *Draft {
	d := &Draft{ID: uuid.New()}
	d.TeamA = &DraftTeam{ID: uuid.New(), DraftID: d.ID, Name: "Radiant Raiders", CaptainID: "cap-a"}
	d.TeamB = &DraftTeam{ID: uuid.New(), DraftID: d.ID, Name: "Dire Wolves", CaptainID: "cap-b"}
	return d
}

func TestTeamLookups(t *testing.T) {
	d := twoTeamDraft()

	if got := d.TeamByCaptain("cap-a"); got != d.TeamA {
		t.Fatalf("TeamByCaptain(cap-a) wrong team")
	}
	if got := d.TeamByCaptain("cap-b"); got != d.TeamB {
		t.Fatalf("TeamByCaptain(cap-b) wrong team")
	}
	if got := d.TeamByCaptain("stranger"); got != nil {
		t.Fatalf("TeamByCaptain(stranger) = %+v, want nil", got)
	}

	if got := d.TeamByID(d.TeamB.ID); got != d.TeamB {
		t.Fatalf("TeamByID wrong team")
	}
	if got := d.TeamByID(uuid.New()); got != nil {
		t.Fatalf("TeamByID(unknown) = %+v, want nil", got)
	}

	if got := d.Opponent(d.TeamA); got != d.TeamB {
		t.Fatalf("Opponent(TeamA) wrong team")
	}
	if got := d.Opponent(d.TeamB); got != d.TeamA {
		t.Fatalf("Opponent(TeamB) wrong team")
	}
}

func TestPickOrderLookups(t *testing.T) {
	d := twoTeamDraft()

	if d.FirstPickTeam() != nil || d.SecondPickTeam() != nil {
		t.Fatalf("pick order teams should be nil before choices settle")
	}

	yes, no := true, false
	d.TeamB.IsFirstPick = &yes
	d.TeamA.IsFirstPick = &no

	if got := d.FirstPickTeam(); got != d.TeamB {
		t.Fatalf("FirstPickTeam wrong team")
	}
	if got := d.SecondPickTeam(); got != d.TeamA {
		t.Fatalf("SecondPickTeam wrong team")
	}
}

func TestChoicesComplete(t *testing.T) {
	d := twoTeamDraft()
	yes, no := true, false

	if d.ChoicesComplete() {
		t.Fatalf("fresh draft should not have complete choices")
	}

	d.TeamA.IsFirstPick = &yes
	d.TeamB.IsFirstPick = &no
	if d.ChoicesComplete() {
		t.Fatalf("pick order alone should not complete choices")
	}

	d.TeamA.IsRadiant = &no
	d.TeamB.IsRadiant = &yes
	if !d.ChoicesComplete() {
		t.Fatalf("both dimensions set on both teams should complete choices")
	}
}

func TestRoundAccessors(t *testing.T) {
	d := twoTeamDraft()
	h1, h2 := 10, 25
	d.Rounds = []*DraftRound{
		{RoundNumber: 1, State: RoundStateCompleted, HeroID: &h1},
		{RoundNumber: 2, State: RoundStateCompleted, HeroID: &h2},
		{RoundNumber: 3, State: RoundStateActive},
		{RoundNumber: 4, State: RoundStatePlanned},
		{RoundNumber: 5, State: RoundStatePlanned},
	}

	if got := d.ActiveRound(); got == nil || got.RoundNumber != 3 {
		t.Fatalf("ActiveRound = %+v, want round 3", got)
	}
	if got := d.NextPlannedRound(); got == nil || got.RoundNumber != 4 {
		t.Fatalf("NextPlannedRound = %+v, want round 4", got)
	}

	used := d.UsedHeroIDs()
	if len(used) != 2 || used[0] != h1 || used[1] != h2 {
		t.Fatalf("UsedHeroIDs = %v, want [%d %d]", used, h1, h2)
	}
}

func TestTransitionWalksOnlyLegalEdges(t *testing.T) {
	d := &Draft{State: DraftStateDrafting}
	if err := d.Transition(DraftStatePaused); err != nil {
		t.Fatalf("drafting -> paused: %v", err)
	}
	if d.State != DraftStatePaused {
		t.Fatalf("state = %s, want paused", d.State)
	}

	if err := d.Transition(DraftStateCompleted); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("paused -> completed err = %v, want ErrIllegalTransition", err)
	}
	if d.State != DraftStatePaused {
		t.Fatalf("illegal transition mutated state to %s", d.State)
	}

	if err := d.Transition(DraftStateAbandoned); err != nil {
		t.Fatalf("paused -> abandoned: %v", err)
	}
	if err := d.Transition(DraftStateDrafting); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("abandoned -> drafting err = %v, want ErrIllegalTransition", err)
	}
}
