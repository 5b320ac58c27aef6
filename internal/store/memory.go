package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
)

// MemoryStore is an in-process Store. It deep-copies on the way in and
// out so callers never alias stored state.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]*models.Draft
	byGame map[uuid.UUID]uuid.UUID
	events map[uuid.UUID][]*models.DraftEvent
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: make(map[uuid.UUID]*models.Draft),
		byGame: make(map[uuid.UUID]uuid.UUID),
		events: make(map[uuid.UUID][]*models.DraftEvent),
	}
}

func (s *MemoryStore) CreateDraft(_ context.Context, d *models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byGame[d.GameID]; ok {
		return ErrAlreadyExists
	}
	s.drafts[d.ID] = copyDraft(d)
	s.byGame[d.GameID] = d.ID
	return nil
}

func (s *MemoryStore) GetDraft(_ context.Context, id uuid.UUID) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDraft(d), nil
}

func (s *MemoryStore) GetDraftByGame(_ context.Context, gameID uuid.UUID) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byGame[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDraft(s.drafts[id]), nil
}

func (s *MemoryStore) SaveDraft(_ context.Context, d *models.Draft, events ...*models.DraftEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[d.ID]; !ok {
		return ErrNotFound
	}
	s.drafts[d.ID] = copyDraft(d)
	for _, ev := range events {
		s.events[d.ID] = append(s.events[d.ID], copyEvent(ev))
	}
	return nil
}

func (s *MemoryStore) InsertRounds(_ context.Context, draftID uuid.UUID, rounds []*models.DraftRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return ErrNotFound
	}
	d.Rounds = nil
	for _, r := range rounds {
		d.Rounds = append(d.Rounds, copyRound(r))
	}
	return nil
}

func (s *MemoryStore) AppendEvent(_ context.Context, ev *models.DraftEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[ev.DraftID]; !ok {
		return ErrNotFound
	}
	s.events[ev.DraftID] = append(s.events[ev.DraftID], copyEvent(ev))
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context, draftID uuid.UUID) ([]*models.DraftEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.drafts[draftID]; !ok {
		return nil, ErrNotFound
	}
	evs := s.events[draftID]
	out := make([]*models.DraftEvent, len(evs))
	for i, ev := range evs {
		out[i] = copyEvent(ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ResetDraft(_ context.Context, d *models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[d.ID]; !ok {
		return ErrNotFound
	}
	delete(s.events, d.ID)
	s.drafts[d.ID] = copyDraft(d)
	return nil
}

func copyDraft(d *models.Draft) *models.Draft {
	out := *d
	out.TeamA = copyTeam(d.TeamA)
	out.TeamB = copyTeam(d.TeamB)
	out.RollWinnerID = copyUUIDPtr(d.RollWinnerID)
	out.PausedAt = copyTimePtr(d.PausedAt)
	out.Rounds = nil
	for _, r := range d.Rounds {
		out.Rounds = append(out.Rounds, copyRound(r))
	}
	return &out
}

func copyTeam(t *models.DraftTeam) *models.DraftTeam {
	if t == nil {
		return nil
	}
	out := *t
	out.IsFirstPick = copyBoolPtr(t.IsFirstPick)
	out.IsRadiant = copyBoolPtr(t.IsRadiant)
	return &out
}

func copyRound(r *models.DraftRound) *models.DraftRound {
	out := *r
	out.HeroID = copyIntPtr(r.HeroID)
	out.StartedAt = copyTimePtr(r.StartedAt)
	out.CompletedAt = copyTimePtr(r.CompletedAt)
	return &out
}

func copyEvent(ev *models.DraftEvent) *models.DraftEvent {
	out := *ev
	out.TeamID = copyUUIDPtr(ev.TeamID)
	if ev.Meta != nil {
		out.Meta = make(map[string]any, len(ev.Meta))
		for k, v := range ev.Meta {
			out.Meta[k] = v
		}
	}
	return &out
}

func copyBoolPtr(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyUUIDPtr(p *uuid.UUID) *uuid.UUID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
