// Package gateway serves the WebSocket surface: captains and
// spectators subscribe per draft (or per tournament) and receive every
// envelope published through the fan-out. Captain connections also
// feed the presence coordinator.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/fanout"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/presence"
)

// ConnectionConfig holds tunables for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns the defaults used in production.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// DraftScope and TournamentScope build the pool keys connections
// subscribe under. An envelope fans out to both of its scopes.
func DraftScope(draftID string) string     { return "draft:" + draftID }
func TournamentScope(tourID string) string { return "tournament:" + tourID }

// BroadcastMessage is one marshaled envelope bound for a scope's pool.
type BroadcastMessage struct {
	Scope string
	Data  []byte
}

// ConnectionManager owns the connection pools and the broadcast fan-in
// channel.
type ConnectionManager struct {
	mu    sync.RWMutex
	pools map[string]map[*Connection]bool

	upgrader    websocket.Upgrader
	config      ConnectionConfig
	coordinator *presence.Coordinator
	broadcastCh chan BroadcastMessage
}

// Connection is one WebSocket client. CaptainID is empty for
// spectators; captain connections are registered with presence and
// can be kicked when a newer connection claims the same captain.
type Connection struct {
	ID        string
	Scope     string
	DraftID   uuid.UUID
	CaptainID string

	conn      *websocket.Conn
	send      chan []byte
	manager   *ConnectionManager
	closeOnce sync.Once
}

// NewConnectionManager creates a manager. The coordinator may be nil
// in tests that only exercise broadcasting.
func NewConnectionManager(config ConnectionConfig, coordinator *presence.Coordinator) *ConnectionManager {
	return &ConnectionManager{
		pools: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		coordinator: coordinator,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start processes broadcast messages until ctx is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case msg := <-cm.broadcastCh:
			cm.handleBroadcast(msg)
		}
	}
}

// Upgrade turns an HTTP request into a managed WebSocket connection.
// Captain connections register with presence, kicking any prior
// connection for the same captain.
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request, scope string, draftID uuid.UUID, captainID string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade connection: %w", err)
	}

	c := &Connection{
		ID:        uuid.New().String(),
		Scope:     scope,
		DraftID:   draftID,
		CaptainID: captainID,
		conn:      conn,
		send:      make(chan []byte, 256),
		manager:   cm,
	}

	cm.register(c)

	if captainID != "" && cm.coordinator != nil {
		if err := cm.coordinator.Connect(r.Context(), draftID, captainID, c); err != nil {
			cm.unregister(c)
			conn.Close()
			return fmt.Errorf("register captain presence: %w", err)
		}
	}

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("scope", scope).
		Str("captain_id", captainID).
		Msg("websocket connection established")
	return nil
}

func (cm *ConnectionManager) register(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.pools[c.Scope] == nil {
		cm.pools[c.Scope] = make(map[*Connection]bool)
	}
	cm.pools[c.Scope][c] = true
}

func (cm *ConnectionManager) unregister(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if pool, ok := cm.pools[c.Scope]; ok {
		if _, ok := pool[c]; ok {
			delete(pool, c)
			close(c.send)
			if len(pool) == 0 {
				delete(cm.pools, c.Scope)
			}
		}
	}
}

// Broadcast queues data for every connection in a scope. Dropping on a
// full channel is deliberate: a wedged gateway must not block the
// publisher side.
func (cm *ConnectionManager) Broadcast(scope string, data []byte) {
	select {
	case cm.broadcastCh <- BroadcastMessage{Scope: scope, Data: data}:
	default:
		log.Warn().Str("scope", scope).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastEnvelope fans an envelope out to both of its scopes.
func (cm *ConnectionManager) BroadcastEnvelope(env fanout.Envelope, data []byte) {
	cm.Broadcast(DraftScope(env.DraftID), data)
	cm.Broadcast(TournamentScope(env.TournamentID), data)
}

func (cm *ConnectionManager) handleBroadcast(msg BroadcastMessage) {
	cm.mu.RLock()
	pool := cm.pools[msg.Scope]
	targets := make([]*Connection, 0, len(pool))
	for c := range pool {
		targets = append(targets, c)
	}
	cm.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- msg.Data:
		default:
			// Slow or dead client; drop it rather than backing up the
			// rest of the pool.
			log.Warn().
				Str("connection_id", c.ID).
				Str("scope", msg.Scope).
				Msg("send buffer full, closing connection")
			cm.unregister(c)
			c.conn.Close()
		}
	}
}

// Stats returns connection counts per scope.
func (cm *ConnectionManager) Stats() map[string]int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	out := make(map[string]int, len(cm.pools))
	for scope, pool := range cm.pools {
		out[scope] = len(pool)
	}
	return out
}
