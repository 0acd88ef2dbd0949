package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/bleikamp/ply/internal/relay/event"
	"github.com/bleikamp/ply/internal/relay/registry"
)

// client is one WebSocket connection on either channel. The engine only
// sees it through Send; the socket itself belongs to the pumps.
type client struct {
	id     string
	group  registry.Group
	conn   *websocket.Conn
	logger *logrus.Entry

	send chan event.Envelope
	done chan struct{}
	once sync.Once
}

func newClient(id string, group registry.Group, conn *websocket.Conn, buffer int, logger *logrus.Entry) *client {
	return &client{
		id:     id,
		group:  group,
		conn:   conn,
		logger: logger,
		send:   make(chan event.Envelope, buffer),
		done:   make(chan struct{}),
	}
}

// ID implements engine.Conn.
func (c *client) ID() string {
	return c.id
}

// Send implements engine.Conn. It never blocks; a full queue drops env.
func (c *client) Send(env event.Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// close stops the write pump, which closes the socket on its way out.
// Safe to call repeatedly.
func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// writePump drains the outbound queue and keeps the connection alive with
// pings. It owns all writes to the socket.
func (c *client) writePump(pingInterval, writeTimeout time.Duration) {
	defer c.conn.Close()

	var tick <-chan time.Time
	if pingInterval > 0 {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case env := <-c.send:
			data, err := json.Marshal(env)
			if err != nil {
				c.logger.WithError(err).Error("Failed to encode envelope")
				continue
			}
			_ = c.conn.SetWriteDeadline(deadline(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.WithError(err).Debug("Write failed, closing connection")
				c.close()
				return
			}

		case <-tick:
			_ = c.conn.SetWriteDeadline(deadline(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.WithError(err).Debug("Ping failed, closing connection")
				c.close()
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// readPump delivers inbound envelopes to fn until the connection fails.
// Frames that are not a JSON envelope with a kind are dropped.
func (c *client) readPump(readLimit int64, pongWait time.Duration, fn func(event.Envelope) error) {
	if readLimit > 0 {
		c.conn.SetReadLimit(readLimit)
	}
	if pongWait > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.WithError(err).Debug("Connection closed unexpectedly")
			}
			return
		}
		if pongWait > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		}

		var env event.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Kind == "" {
			c.logger.WithField("frame", string(data)).Debug("Dropped malformed envelope")
			continue
		}
		if err := fn(env); err != nil {
			c.logger.WithError(err).Debug("Relay refused message, closing connection")
			return
		}
	}
}

func deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}
