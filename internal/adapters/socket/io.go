package socket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/openkara/player/internal/core"
	"github.com/openkara/player/internal/wire"
)

func (c *Client) writePump(conn *websocket.Conn, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-c.quit:
			return
		case data := <-c.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "socket").Msg("writePump set deadline")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "socket").Msg("writePump write error")
				return
			}
		}
	}
}

// readLoop delivers inbound actions until the connection drops. Malformed
// frames are logged and skipped, never fatal.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Warn().Err(err).Str("module", "socket").Msg("read error")
			return
		}
		action, err := wire.ParseAction(data)
		if err != nil {
			log.Error().Err(err).Str("module", "socket").Msg("bad json")
			continue
		}
		select {
		case c.events <- core.ActionEvent(action):
		case <-c.quit:
			return
		}
	}
}

// Emit queues a type-tagged action for sending. A full outbound buffer
// returns ErrBackpressure instead of blocking the caller.
func (c *Client) Emit(actionType string, payload any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	action := wire.Action{Type: actionType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		action.Payload = raw
	}
	data, err := json.Marshal(action)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}
