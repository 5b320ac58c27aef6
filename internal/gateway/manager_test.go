package gateway

import (
	"testing"

	"github.com/google/uuid"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/fanout"
)

func newPoolConnection(cm *ConnectionManager, scope string) *Connection {
	c := &Connection{
		ID:      uuid.New().String(),
		Scope:   scope,
		send:    make(chan []byte, 16),
		manager: cm,
	}
	cm.register(c)
	return c
}

func TestBroadcastRoutesByScope(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), nil)
	draftScope := DraftScope(uuid.New().String())
	otherScope := DraftScope(uuid.New().String())

	in := newPoolConnection(cm, draftScope)
	out := newPoolConnection(cm, otherScope)

	cm.handleBroadcast(BroadcastMessage{Scope: draftScope, Data: []byte("hello")})

	select {
	case msg := <-in.send:
		if string(msg) != "hello" {
			t.Fatalf("got %q, want hello", msg)
		}
	default:
		t.Fatalf("in-scope connection received nothing")
	}

	select {
	case msg := <-out.send:
		t.Fatalf("out-of-scope connection received %q", msg)
	default:
	}
}

func TestBroadcastEnvelopeReachesBothScopes(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), nil)
	draftID := uuid.New()
	tourID := uuid.New()

	env := fanout.NewEnvelope(fanout.KindDraftEvent, draftID, tourID, "captain_ready", nil, nil)
	cm.BroadcastEnvelope(env, []byte("payload"))

	// Both queued messages should be waiting on the broadcast channel.
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-cm.broadcastCh:
			seen[msg.Scope] = true
		default:
			t.Fatalf("expected two queued broadcasts, got %d", i)
		}
	}
	if !seen[DraftScope(draftID.String())] || !seen[TournamentScope(tourID.String())] {
		t.Fatalf("broadcast scopes = %v", seen)
	}
}

func TestUnregisterPrunesEmptyPools(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), nil)
	scope := DraftScope(uuid.New().String())

	a := newPoolConnection(cm, scope)
	b := newPoolConnection(cm, scope)

	if got := cm.Stats()[scope]; got != 2 {
		t.Fatalf("stats = %d, want 2", got)
	}

	cm.unregister(a)
	if got := cm.Stats()[scope]; got != 1 {
		t.Fatalf("stats after one unregister = %d, want 1", got)
	}

	cm.unregister(b)
	if _, ok := cm.Stats()[scope]; ok {
		t.Fatalf("empty pool should be pruned")
	}

	// Unregistering twice must not close the send channel twice.
	cm.unregister(b)
}
