// Package httpapi exposes the draft operations over HTTP. Routing,
// auth and serialization frameworks live outside this service; the
// caller's identity arrives pre-authenticated in headers.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/engine"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/store"
)

// Handler serves the draft action and read endpoints.
type Handler struct {
	engine *engine.Engine
}

func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

// RegisterRoutes attaches every endpoint to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /drafts", h.handleCreate)
	mux.HandleFunc("POST /drafts/{id}/ready", h.handleReady)
	mux.HandleFunc("POST /drafts/{id}/roll", h.handleRoll)
	mux.HandleFunc("POST /drafts/{id}/choice", h.handleChoice)
	mux.HandleFunc("POST /drafts/{id}/pick", h.handlePick)
	mux.HandleFunc("POST /drafts/{id}/abandon", h.handleAbandon)
	mux.HandleFunc("POST /drafts/{id}/resume", h.handleResume)
	mux.HandleFunc("POST /drafts/{id}/reset", h.handleReset)
	mux.HandleFunc("GET /drafts/{id}", h.handleGetState)
	mux.HandleFunc("GET /drafts/{id}/events", h.handleListEvents)
	mux.HandleFunc("GET /drafts/{id}/heroes", h.handleListHeroes)
}

// identity reads the pre-authenticated caller from headers.
func identity(r *http.Request) engine.Identity {
	return engine.Identity{
		AccountID: r.Header.Get("X-Captain-ID"),
		IsAdmin:   r.Header.Get("X-Admin") == "true",
	}
}

func draftID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft id")
		return uuid.Nil, false
	}
	return id, true
}

type teamSeedBody struct {
	RosterID  uuid.UUID `json:"roster_id"`
	Name      string    `json:"name"`
	CaptainID string    `json:"captain_id"`
}

type createBody struct {
	GameID       uuid.UUID    `json:"game_id"`
	TournamentID uuid.UUID    `json:"tournament_id"`
	TeamA        teamSeedBody `json:"team_a"`
	TeamB        teamSeedBody `json:"team_b"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.engine.Create(r.Context(), engine.CreateDraftRequest{
		GameID:       body.GameID,
		TournamentID: body.TournamentID,
		TeamA:        engine.TeamSeed(body.TeamA),
		TeamB:        engine.TeamSeed(body.TeamB),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	d, err := h.engine.SetReady(r.Context(), id, identity(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleRoll(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	d, err := h.engine.TriggerRoll(r.Context(), id, identity(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type choiceBody struct {
	ChoiceType string `json:"choice_type"`
	Value      string `json:"value"`
}

func (h *Handler) handleChoice(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	var body choiceBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := h.engine.SubmitChoice(r.Context(), id, identity(r), engine.ChoiceType(body.ChoiceType), body.Value)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type pickBody struct {
	HeroID int `json:"hero_id"`
}

func (h *Handler) handlePick(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	var body pickBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := h.engine.SubmitPick(r.Context(), id, identity(r), body.HeroID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	d, err := h.engine.Abandon(r.Context(), id, identity(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	d, err := h.engine.Resume(r.Context(), id, identity(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	d, err := h.engine.Reset(r.Context(), id, identity(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	d, err := h.engine.GetState(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	events, err := h.engine.ListEvents(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) handleListHeroes(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}
	heroIDs, err := h.engine.AvailableHeroes(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hero_ids": heroIDs})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeEngineError maps the engine's error taxonomy onto HTTP status
// codes, keeping each specific reason string intact for the client.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrNotCaptain),
		errors.Is(err, engine.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrWrongState),
		errors.Is(err, engine.ErrNotYourTurn),
		errors.Is(err, engine.ErrHeroUsed),
		errors.Is(err, engine.ErrChoiceTaken),
		errors.Is(err, engine.ErrRollWinnerFirst),
		errors.Is(err, engine.ErrNoActiveRound),
		errors.Is(err, engine.ErrDraftTerminal):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrUnknownHero),
		errors.Is(err, engine.ErrNoCaptains):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
