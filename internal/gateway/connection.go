package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// clientMessage is the small set of frames clients send upstream.
type clientMessage struct {
	Type string `json:"type"`
}

// Kick asks this connection to close: a newer connection has claimed
// the same captain. Cooperative, not a hard abort; the presence
// coordinator has already replaced the registration, so this
// connection's teardown will be treated as superseded.
func (c *Connection) Kick() {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(c.manager.config.WriteTimeout)
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "superseded by newer connection")
		if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			log.Debug().Err(err).Str("connection_id", c.ID).Msg("kick close write failed")
		}
		c.conn.Close()
	})
}

// writePump pushes queued broadcasts and keepalive pings to the peer.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes frames until the connection dies, then reports the
// teardown. For captains, the presence coordinator decides whether the
// teardown was genuine or a superseded connection closing late.
func (c *Connection) readPump() {
	defer func() {
		c.manager.unregister(c)
		c.conn.Close()
		if c.CaptainID != "" && c.manager.coordinator != nil {
			if err := c.manager.coordinator.Disconnect(context.Background(), c.DraftID, c.CaptainID, c); err != nil {
				log.Error().Err(err).
					Str("connection_id", c.ID).
					Str("captain_id", c.CaptainID).
					Msg("disconnect handling failed")
			}
		}
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.ClosePolicyViolation) {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close")
			}
			return
		}
		c.handleClientMessage(data)
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}

func (c *Connection) handleClientMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().Str("connection_id", c.ID).Msg("ignoring malformed client frame")
		return
	}

	switch msg.Type {
	case "heartbeat":
		if c.CaptainID != "" && c.manager.coordinator != nil {
			c.manager.coordinator.Heartbeat(c.DraftID, c.CaptainID, c)
		}
	default:
		log.Debug().
			Str("connection_id", c.ID).
			Str("type", msg.Type).
			Msg("ignoring unknown client frame")
	}
}
