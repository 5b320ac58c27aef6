package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handler serves the WebSocket upgrade endpoints.
type Handler struct {
	manager *ConnectionManager
}

func NewHandler(manager *ConnectionManager) *Handler {
	return &Handler{manager: manager}
}

// HandleDraft upgrades a draft-scoped subscription. A captain_id query
// parameter makes this a captain connection (registered with presence,
// kickable); without one the client is a spectator.
func (h *Handler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.URL.Query().Get("draft_id"))
	if err != nil {
		http.Error(w, "invalid draft_id", http.StatusBadRequest)
		return
	}
	captainID := r.URL.Query().Get("captain_id")

	if err := h.manager.Upgrade(w, r, DraftScope(draftID.String()), draftID, captainID); err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("websocket upgrade failed")
	}
}

// HandleTournament upgrades a tournament-scoped spectator subscription.
func (h *Handler) HandleTournament(w http.ResponseWriter, r *http.Request) {
	tourID, err := uuid.Parse(r.URL.Query().Get("tournament_id"))
	if err != nil {
		http.Error(w, "invalid tournament_id", http.StatusBadRequest)
		return
	}

	if err := h.manager.Upgrade(w, r, TournamentScope(tourID.String()), uuid.Nil, ""); err != nil {
		log.Error().Err(err).Str("tournament_id", tourID.String()).Msg("websocket upgrade failed")
	}
}

// HandleStats reports connection counts per scope.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.manager.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}

// RegisterRoutes attaches the WebSocket endpoints to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/draft", h.HandleDraft)
	mux.HandleFunc("/ws/tournament", h.HandleTournament)
	mux.HandleFunc("/ws/stats", h.HandleStats)
}
