// Package presence tracks the single canonical connection per
// (draft, captain) pair. A newer connection claiming the same captain
// kicks the older one, and the older one's teardown is then treated as
// superseded rather than a genuine disconnect, so it can never clobber
// the presence state the newer connection already claimed.
//
// Registrations carry a TTL refreshed by client heartbeats; the sweep
// turns a silently dead client into a genuine disconnect instead of a
// stale "connected" forever.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Session is the transport-side handle for one captain connection.
// Kick is a cooperative cancellation: the targeted connection is
// expected to close itself upon receiving it.
type Session interface {
	Kick()
}

// DraftNotifier is what the coordinator needs from the engine.
type DraftNotifier interface {
	HandleConnect(ctx context.Context, draftID uuid.UUID, captainID string) error
	HandleDisconnect(ctx context.Context, draftID uuid.UUID, captainID string) error
}

type key struct {
	draftID   uuid.UUID
	captainID string
}

type registration struct {
	session  Session
	deadline time.Time
}

// Coordinator owns the canonical-connection registry.
type Coordinator struct {
	notifier DraftNotifier
	clock    clockwork.Clock
	ttl      time.Duration

	mu      sync.Mutex
	current map[key]*registration
}

// NewCoordinator creates a coordinator with the given registration TTL.
func NewCoordinator(notifier DraftNotifier, clock clockwork.Clock, ttl time.Duration) *Coordinator {
	return &Coordinator{
		notifier: notifier,
		clock:    clock,
		ttl:      ttl,
		current:  make(map[key]*registration),
	}
}

// Connect registers s as the canonical connection for the captain,
// kicking any prior connection. The check-and-set runs under the
// registry lock so two racing connections cannot both become canonical.
func (c *Coordinator) Connect(ctx context.Context, draftID uuid.UUID, captainID string, s Session) error {
	k := key{draftID, captainID}

	c.mu.Lock()
	prior := c.current[k]
	c.current[k] = &registration{session: s, deadline: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()

	if prior != nil {
		log.Info().
			Str("draft_id", draftID.String()).
			Str("captain_id", captainID).
			Msg("kicking superseded connection")
		prior.session.Kick()
	}

	return c.notifier.HandleConnect(ctx, draftID, captainID)
}

// Heartbeat refreshes the TTL for s, if s is still canonical.
func (c *Coordinator) Heartbeat(draftID uuid.UUID, captainID string, s Session) {
	k := key{draftID, captainID}

	c.mu.Lock()
	defer c.mu.Unlock()
	if reg, ok := c.current[k]; ok && reg.session == s {
		reg.deadline = c.clock.Now().Add(c.ttl)
	}
}

// Disconnect handles the teardown of s. If a newer connection has
// already claimed the captain, s was superseded and nothing happens:
// the new connection owns the "connected" status now. Only the
// canonical connection's teardown is a genuine disconnect.
func (c *Coordinator) Disconnect(ctx context.Context, draftID uuid.UUID, captainID string, s Session) error {
	k := key{draftID, captainID}

	c.mu.Lock()
	reg, ok := c.current[k]
	if !ok || reg.session != s {
		c.mu.Unlock()
		log.Debug().
			Str("draft_id", draftID.String()).
			Str("captain_id", captainID).
			Msg("superseded connection closed; ignoring")
		return nil
	}
	delete(c.current, k)
	c.mu.Unlock()

	return c.notifier.HandleDisconnect(ctx, draftID, captainID)
}

// Run sweeps expired registrations until ctx is cancelled. An expired
// registration is a genuine disconnect: the client stopped
// heartbeating without closing.
func (c *Coordinator) Run(ctx context.Context) {
	interval := c.ttl / 2
	if interval <= 0 {
		interval = time.Second
	}
	tick := c.clock.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.Chan():
			c.sweep(ctx)
		}
	}
}

func (c *Coordinator) sweep(ctx context.Context) {
	now := c.clock.Now()

	type expired struct {
		k key
		s Session
	}
	var dead []expired

	c.mu.Lock()
	for k, reg := range c.current {
		if now.After(reg.deadline) {
			dead = append(dead, expired{k, reg.session})
			delete(c.current, k)
		}
	}
	c.mu.Unlock()

	for _, ex := range dead {
		log.Warn().
			Str("draft_id", ex.k.draftID.String()).
			Str("captain_id", ex.k.captainID).
			Msg("presence registration expired; treating as disconnect")
		ex.s.Kick()
		if err := c.notifier.HandleDisconnect(ctx, ex.k.draftID, ex.k.captainID); err != nil {
			log.Error().Err(err).
				Str("draft_id", ex.k.draftID.String()).
				Str("captain_id", ex.k.captainID).
				Msg("disconnect handling failed for expired registration")
		}
	}
}

// Canonical reports whether s is the registered connection for the
// captain.
func (c *Coordinator) Canonical(draftID uuid.UUID, captainID string, s Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg, ok := c.current[key{draftID, captainID}]
	return ok && reg.session == s
}
