package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one live dashboard connection, bound to a single course's room.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	courseID  string
	sessionID uint64
	send      chan []byte
}

// NewClient wraps an upgraded websocket connection. Register it with the hub
// and call Run to start its pumps.
func NewClient(h *Hub, conn *websocket.Conn, courseID string) *Client {
	return &Client{
		hub:       h,
		conn:      conn,
		courseID:  courseID,
		sessionID: h.nextID(),
		send:      make(chan []byte, 64),
	}
}

func (c *Client) CourseID() string  { return c.courseID }
func (c *Client) SessionID() uint64 { return c.sessionID }

// Run starts the read and write pumps in their own goroutines.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// Close tears down the underlying connection.
func (c *Client) Close() {
	c.conn.Close()
}

// readPump watches the connection for pongs and closure. Dashboards never
// send application messages; anything received is drained and discarded. When
// the read fails — client closed, network gone, or heartbeat timeout via the
// read deadline — the client unregisters itself from its room.
func (c *Client) readPump() {
	logCtx := logrus.WithFields(logrus.Fields{
		"course_id":  c.courseID,
		"session_id": c.sessionID,
	})
	defer func() {
		c.hub.queue(hubMessage{kind: msgUnregister, courseID: c.courseID, client: c})
		c.conn.Close()
		logCtx.Info("readPump exited, client unregistered")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			return
		}
	}
}

// writePump pumps messages from the send channel to the connection and keeps
// the heartbeat going.
func (c *Client) writePump() {
	logCtx := logrus.WithFields(logrus.Fields{
		"course_id":  c.courseID,
		"session_id": c.sessionID,
	})
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel during unregister.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.Debug("Failed to send ping, connection presumed dead")
				return
			}
		}
	}
}
