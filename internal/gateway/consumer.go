package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/fanout"
)

// EventConsumer bridges the NATS fan-out into WebSocket broadcasts: it
// subscribes to both the draft-scoped and the tournament-scoped
// subject spaces and forwards each envelope into the connection
// manager.
type EventConsumer struct {
	manager *ConnectionManager
	nc      *nats.Conn
	subs    []*nats.Subscription
}

// NewEventConsumer wraps an existing NATS connection.
func NewEventConsumer(manager *ConnectionManager, nc *nats.Conn) *EventConsumer {
	return &EventConsumer{manager: manager, nc: nc}
}

// Start subscribes and forwards until ctx is cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	for _, subject := range []string{
		fanout.DraftSubjectPrefix + ">",
		fanout.TournamentSubjectPrefix + ">",
	} {
		sub, err := ec.nc.Subscribe(subject, ec.handleMessage)
		if err != nil {
			ec.Stop()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		ec.subs = append(ec.subs, sub)
	}

	log.Info().Msg("gateway event consumer started")
	<-ctx.Done()
	ec.Stop()
	return nil
}

// Stop drains the subscriptions.
func (ec *EventConsumer) Stop() {
	for _, sub := range ec.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("unsubscribe failed")
		}
	}
	ec.subs = nil
}

func (ec *EventConsumer) handleMessage(msg *nats.Msg) {
	var env fanout.Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("dropping malformed envelope")
		return
	}

	// The same envelope arrives once per scope subscription; forward
	// each copy only to the scope it arrived on so clients don't see
	// duplicates.
	switch {
	case strings.HasPrefix(msg.Subject, fanout.DraftSubjectPrefix):
		ec.manager.Broadcast(DraftScope(env.DraftID), msg.Data)
	case strings.HasPrefix(msg.Subject, fanout.TournamentSubjectPrefix):
		ec.manager.Broadcast(TournamentScope(env.TournamentID), msg.Data)
	}
}
