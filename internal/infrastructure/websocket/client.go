package websocket

import (
	"encoding/json"

	"github.com/gorilla/websocket"

	"vendra/pkg/logger"
)

// Client is one live connection of one user.
type Client struct {
	UserID string
	ConnID string
	Conn   *websocket.Conn
	Send   chan []byte
}

func (c *Client) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
		// Slow consumer; the write pump will notice the closed socket.
		logger.Warn("websocket send buffer full: user=%s conn=%s", c.UserID, c.ConnID)
	}
}

// ReadPump consumes client frames until the connection drops.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error: user=%s: %v", c.UserID, err)
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			m.sendEvent(c, EventError, map[string]string{"error": "invalid frame"})
			continue
		}

		switch frame.Type {
		case FramePing:
			m.Touch(c)
			m.sendEvent(c, EventPong, nil)
		case FrameAway:
			m.SetAway(c, frame.Away)
		case FrameResync:
			m.pushSync(c)
		default:
			m.sendEvent(c, EventError, map[string]string{"error": "unknown frame type"})
		}
	}
}

// WritePump drains the send channel to the socket.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for data := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Warn("websocket write error: user=%s: %v", c.UserID, err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
