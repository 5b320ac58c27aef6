package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Subject prefixes. The draft id (or tournament id) is the final token
// so subscribers can filter with a wildcard, e.g. "draft.events.>".
const (
	DraftSubjectPrefix      = "draft.events."
	TournamentSubjectPrefix = "tournament.events."
)

// NATSPublisher publishes envelopes to NATS core subjects, once per
// scope (draft and tournament).
type NATSPublisher struct {
	nc *nats.Conn
}

// ConnectNATS dials NATS with the reconnect behavior used across the
// service.
func ConnectNATS(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NewNATSPublisher wraps an existing NATS connection.
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

func (p *NATSPublisher) Publish(_ context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := p.nc.Publish(DraftSubjectPrefix+env.DraftID, data); err != nil {
		return fmt.Errorf("publish draft scope: %w", err)
	}
	if err := p.nc.Publish(TournamentSubjectPrefix+env.TournamentID, data); err != nil {
		return fmt.Errorf("publish tournament scope: %w", err)
	}
	return nil
}
