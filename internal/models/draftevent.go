package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the notable occurrences recorded in the draft's
// append-only audit log.
type EventType string

const (
	EventDraftCreated        EventType = "draft_created"
	EventCaptainReady        EventType = "captain_ready"
	EventRollResult          EventType = "roll_result"
	EventChoiceMade          EventType = "choice_made"
	EventRoundStarted        EventType = "round_started"
	EventHeroSelected        EventType = "hero_selected"
	EventRoundTimeout        EventType = "round_timeout"
	EventCaptainConnected    EventType = "captain_connected"
	EventCaptainDisconnected EventType = "captain_disconnected"
	EventDraftPaused         EventType = "draft_paused"
	EventDraftResumed        EventType = "draft_resumed"
	EventDraftCompleted      EventType = "draft_completed"
	EventDraftAbandoned      EventType = "draft_abandoned"
	EventDraftReset          EventType = "draft_reset"
)

// DraftEvent is one row of the audit log. Written inside the same
// critical section as the state change it documents, never mutated.
type DraftEvent struct {
	ID        uuid.UUID      `json:"id"`
	DraftID   uuid.UUID      `json:"draft_id"`
	TeamID    *uuid.UUID     `json:"team_id,omitempty"`
	Type      EventType      `json:"type"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
