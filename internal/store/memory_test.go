package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
)

func seedDraft() *models.Draft {
	d := &models.Draft{
		ID:           uuid.New(),
		GameID:       uuid.New(),
		TournamentID: uuid.New(),
		State:        models.DraftStateWaitingForCaptains,
		CreatedAt:    time.Now(),
	}
	d.TeamA = &models.DraftTeam{ID: uuid.New(), DraftID: d.ID, Name: "Alpha", CaptainID: "cap-a", ReserveTimeMs: models.DefaultReserveTimeMs}
	d.TeamB = &models.DraftTeam{ID: uuid.New(), DraftID: d.ID, Name: "Bravo", CaptainID: "cap-b", ReserveTimeMs: models.DefaultReserveTimeMs}
	return d
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	d := seedDraft()

	if err := s.CreateDraft(ctx, d); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	got, err := s.GetDraft(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if got.ID != d.ID || got.TeamA.Name != "Alpha" || got.TeamB.CaptainID != "cap-b" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	byGame, err := s.GetDraftByGame(ctx, d.GameID)
	if err != nil {
		t.Fatalf("GetDraftByGame: %v", err)
	}
	if byGame.ID != d.ID {
		t.Fatalf("GetDraftByGame returned wrong draft")
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.GetDraft(ctx, uuid.New()); err != ErrNotFound {
		t.Fatalf("GetDraft err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetDraftByGame(ctx, uuid.New()); err != ErrNotFound {
		t.Fatalf("GetDraftByGame err = %v, want ErrNotFound", err)
	}
	if err := s.SaveDraft(ctx, seedDraft()); err != ErrNotFound {
		t.Fatalf("SaveDraft err = %v, want ErrNotFound", err)
	}
	if _, err := s.ListEvents(ctx, uuid.New()); err != ErrNotFound {
		t.Fatalf("ListEvents err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	d := seedDraft()

	if err := s.CreateDraft(ctx, d); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	first, _ := s.GetDraft(ctx, d.ID)
	first.State = models.DraftStateAbandoned
	first.TeamA.IsReady = true

	second, _ := s.GetDraft(ctx, d.ID)
	if second.State != models.DraftStateWaitingForCaptains {
		t.Fatalf("mutating a returned draft leaked into the store")
	}
	if second.TeamA.IsReady {
		t.Fatalf("mutating a returned team leaked into the store")
	}
}

func TestMemoryStoreSaveDraftWithEvents(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	d := seedDraft()

	if err := s.CreateDraft(ctx, d); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	d.State = models.DraftStateRolling
	ev := &models.DraftEvent{
		ID:        uuid.New(),
		DraftID:   d.ID,
		Type:      models.EventCaptainReady,
		CreatedAt: time.Now(),
	}
	if err := s.SaveDraft(ctx, d, ev); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	got, _ := s.GetDraft(ctx, d.ID)
	if got.State != models.DraftStateRolling {
		t.Fatalf("state not persisted")
	}

	events, err := s.ListEvents(ctx, d.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Type != models.EventCaptainReady {
		t.Fatalf("events = %+v, want one captain_ready", events)
	}
}

func TestMemoryStoreInsertRounds(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	d := seedDraft()

	if err := s.CreateDraft(ctx, d); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	rounds := []*models.DraftRound{
		{ID: uuid.New(), DraftID: d.ID, TeamID: d.TeamA.ID, RoundNumber: 1, ActionType: models.ActionBan, State: models.RoundStatePlanned},
		{ID: uuid.New(), DraftID: d.ID, TeamID: d.TeamB.ID, RoundNumber: 2, ActionType: models.ActionBan, State: models.RoundStatePlanned},
	}
	if err := s.InsertRounds(ctx, d.ID, rounds); err != nil {
		t.Fatalf("InsertRounds: %v", err)
	}

	got, _ := s.GetDraft(ctx, d.ID)
	if len(got.Rounds) != 2 || got.Rounds[1].RoundNumber != 2 {
		t.Fatalf("rounds not persisted: %+v", got.Rounds)
	}
}

func TestMemoryStoreResetDraftClearsEvents(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	d := seedDraft()

	if err := s.CreateDraft(ctx, d); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	ev := &models.DraftEvent{ID: uuid.New(), DraftID: d.ID, Type: models.EventDraftCreated, CreatedAt: time.Now()}
	if err := s.AppendEvent(ctx, ev); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	d.Rounds = nil
	d.State = models.DraftStateWaitingForCaptains
	if err := s.ResetDraft(ctx, d); err != nil {
		t.Fatalf("ResetDraft: %v", err)
	}

	events, err := s.ListEvents(ctx, d.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events survived reset: %+v", events)
	}
}

func TestMemoryStoreCreateDraftRejectsDuplicateGame(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	d := seedDraft()

	if err := s.CreateDraft(ctx, d); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	dup := seedDraft()
	dup.GameID = d.GameID
	if err := s.CreateDraft(ctx, dup); err != ErrAlreadyExists {
		t.Fatalf("duplicate CreateDraft err = %v, want ErrAlreadyExists", err)
	}

	got, err := s.GetDraftByGame(ctx, d.GameID)
	if err != nil {
		t.Fatalf("GetDraftByGame: %v", err)
	}
	if got.ID != d.ID {
		t.Fatalf("game maps to draft %s, want the original %s", got.ID, d.ID)
	}
}
