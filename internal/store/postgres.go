package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/models"
)

// PostgresStore persists drafts in Postgres via pgx. Multi-row writes
// run in one transaction and take the draft row lock first
// (SELECT ... FOR UPDATE) so each write commits atomically and
// writers to one draft queue. The full read-modify-write cycle is
// serialized by the engine's per-draft lock within a single process;
// the store does not provide a locked read spanning that cycle.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateDraft(ctx context.Context, d *models.Draft) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO hero_drafts (id, game_id, tournament_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.GameID, d.TournamentID, d.State, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert draft: %w", err)
	}

	for _, t := range d.Teams() {
		_, err = tx.Exec(ctx, `
			INSERT INTO hero_draft_teams
				(id, draft_id, roster_id, name, captain_id, is_ready, is_connected, reserve_time_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, d.ID, t.RosterID, t.Name, t.CaptainID, t.IsReady, t.IsConnected, t.ReserveTimeMs)
		if err != nil {
			return fmt.Errorf("insert draft team: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	return s.getDraft(ctx, `WHERE d.id = $1`, id)
}

func (s *PostgresStore) GetDraftByGame(ctx context.Context, gameID uuid.UUID) (*models.Draft, error) {
	return s.getDraft(ctx, `WHERE d.game_id = $1`, gameID)
}

func (s *PostgresStore) getDraft(ctx context.Context, where string, arg any) (*models.Draft, error) {
	d := &models.Draft{}
	err := s.pool.QueryRow(ctx, `
		SELECT d.id, d.game_id, d.tournament_id, d.state, d.roll_winner_id, d.paused_at, d.created_at, d.updated_at
		FROM hero_drafts d `+where,
		arg).Scan(&d.ID, &d.GameID, &d.TournamentID, &d.State, &d.RollWinnerID, &d.PausedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select draft: %w", err)
	}

	if err := s.loadTeams(ctx, d); err != nil {
		return nil, err
	}
	if err := s.loadRounds(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *PostgresStore) loadTeams(ctx context.Context, d *models.Draft) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, draft_id, roster_id, name, captain_id, is_ready, is_connected,
		       is_first_pick, is_radiant, reserve_time_ms
		FROM hero_draft_teams WHERE draft_id = $1 ORDER BY id`, d.ID)
	if err != nil {
		return fmt.Errorf("select draft teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.DraftTeam
	for rows.Next() {
		t := &models.DraftTeam{}
		if err := rows.Scan(&t.ID, &t.DraftID, &t.RosterID, &t.Name, &t.CaptainID,
			&t.IsReady, &t.IsConnected, &t.IsFirstPick, &t.IsRadiant, &t.ReserveTimeMs); err != nil {
			return fmt.Errorf("scan draft team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate draft teams: %w", err)
	}
	if len(teams) != 2 {
		return fmt.Errorf("draft %s has %d teams, want 2", d.ID, len(teams))
	}
	d.TeamA, d.TeamB = teams[0], teams[1]
	return nil
}

func (s *PostgresStore) loadRounds(ctx context.Context, d *models.Draft) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, draft_id, team_id, round_number, action_type, state, hero_id,
		       grace_time_ms, started_at, completed_at
		FROM hero_draft_rounds WHERE draft_id = $1 ORDER BY round_number`, d.ID)
	if err != nil {
		return fmt.Errorf("select draft rounds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := &models.DraftRound{}
		if err := rows.Scan(&r.ID, &r.DraftID, &r.TeamID, &r.RoundNumber, &r.ActionType,
			&r.State, &r.HeroID, &r.GraceTimeMs, &r.StartedAt, &r.CompletedAt); err != nil {
			return fmt.Errorf("scan draft round: %w", err)
		}
		d.Rounds = append(d.Rounds, r)
	}
	return rows.Err()
}

func (s *PostgresStore) SaveDraft(ctx context.Context, d *models.Draft, events ...*models.DraftEvent) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockDraftRow(ctx, tx, d.ID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE hero_drafts
		SET state = $2, roll_winner_id = $3, paused_at = $4, updated_at = $5
		WHERE id = $1`,
		d.ID, d.State, d.RollWinnerID, d.PausedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}

	batch := &pgx.Batch{}
	for _, t := range d.Teams() {
		batch.Queue(`
			UPDATE hero_draft_teams
			SET is_ready = $2, is_connected = $3, is_first_pick = $4, is_radiant = $5, reserve_time_ms = $6
			WHERE id = $1`,
			t.ID, t.IsReady, t.IsConnected, t.IsFirstPick, t.IsRadiant, t.ReserveTimeMs)
	}
	for _, r := range d.Rounds {
		batch.Queue(`
			UPDATE hero_draft_rounds
			SET state = $2, hero_id = $3, started_at = $4, completed_at = $5
			WHERE id = $1`,
			r.ID, r.State, r.HeroID, r.StartedAt, r.CompletedAt)
	}
	for _, ev := range events {
		meta, err := json.Marshal(ev.Meta)
		if err != nil {
			return fmt.Errorf("marshal event meta: %w", err)
		}
		batch.Queue(`
			INSERT INTO hero_draft_events (id, draft_id, team_id, event_type, meta, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			ev.ID, ev.DraftID, ev.TeamID, ev.Type, meta, ev.CreatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save draft batch: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) InsertRounds(ctx context.Context, draftID uuid.UUID, rounds []*models.DraftRound) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockDraftRow(ctx, tx, draftID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, r := range rounds {
		batch.Queue(`
			INSERT INTO hero_draft_rounds
				(id, draft_id, team_id, round_number, action_type, state, grace_time_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.ID, r.DraftID, r.TeamID, r.RoundNumber, r.ActionType, r.State, r.GraceTimeMs)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert rounds batch: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) AppendEvent(ctx context.Context, ev *models.DraftEvent) error {
	meta, err := json.Marshal(ev.Meta)
	if err != nil {
		return fmt.Errorf("marshal event meta: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO hero_draft_events (id, draft_id, team_id, event_type, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.DraftID, ev.TeamID, ev.Type, meta, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, draftID uuid.UUID) ([]*models.DraftEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, draft_id, team_id, event_type, meta, created_at
		FROM hero_draft_events WHERE draft_id = $1 ORDER BY created_at, id`, draftID)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var out []*models.DraftEvent
	for rows.Next() {
		ev := &models.DraftEvent{}
		var meta []byte
		if err := rows.Scan(&ev.ID, &ev.DraftID, &ev.TeamID, &ev.Type, &meta, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &ev.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal event meta: %w", err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ResetDraft(ctx context.Context, d *models.Draft) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockDraftRow(ctx, tx, d.ID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM hero_draft_rounds WHERE draft_id = $1`, d.ID); err != nil {
		return fmt.Errorf("delete rounds: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM hero_draft_events WHERE draft_id = $1`, d.ID); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE hero_drafts
		SET state = $2, roll_winner_id = NULL, paused_at = NULL, updated_at = $3
		WHERE id = $1`, d.ID, d.State, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("reset draft: %w", err)
	}

	for _, t := range d.Teams() {
		_, err = tx.Exec(ctx, `
			UPDATE hero_draft_teams
			SET is_ready = false, is_connected = false, is_first_pick = NULL, is_radiant = NULL,
			    reserve_time_ms = $2
			WHERE id = $1`, t.ID, t.ReserveTimeMs)
		if err != nil {
			return fmt.Errorf("reset draft team: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func lockDraftRow(ctx context.Context, tx pgx.Tx, draftID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM hero_drafts WHERE id = $1 FOR UPDATE`, draftID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock draft row: %w", err)
	}
	return nil
}
