package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quickchat/server/internal/common/logger"
	"github.com/quickchat/server/internal/observability/metrics"
)

// Client wraps one upgraded connection for an authenticated user. It runs a
// read pump and a write pump; the gateway run loop owns registration and is
// the only goroutine that closes the send channel (via closeSend).
type Client struct {
	gateway *Gateway
	conn    *websocket.Conn
	userID  string
	log     *logger.Logger

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClient(g *Gateway, conn *websocket.Conn, userID string) *Client {
	return &Client{
		gateway: g,
		conn:    conn,
		userID:  userID,
		log:     g.log,
		send:    make(chan []byte, g.cfg.SendBufferSize),
	}
}

func (c *Client) UserID() string { return c.userID }

// Enqueue hands a frame to the write pump without blocking. It reports false
// once the client is closed or its buffer is full; the caller decides whether
// that matters.
func (c *Client) Enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		metrics.WebSocketDroppedMessages.WithLabelValues("enqueue_full").Inc()
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// notifyDisconnect hands the client back to the gateway loop. Once the loop
// has exited nothing receives on unregister, so the send must also watch done
// or the pump goroutine would block forever during shutdown.
func (c *Client) notifyDisconnect() {
	select {
	case c.gateway.unregister <- c:
	case <-c.gateway.done:
	}
}

// readPump consumes inbound frames until the peer goes away. The protocol is
// push-only, so inbound payloads are discarded; the pump exists to service
// pong frames and to detect disconnects.
func (c *Client) readPump() {
	defer func() {
		c.notifyDisconnect()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.gateway.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.gateway.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.gateway.cfg.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warnf("websocket read error for user %s: %v", c.userID, err)
				metrics.WebSocketDisconnections.WithLabelValues("read_error").Inc()
			} else {
				metrics.WebSocketDisconnections.WithLabelValues("peer_closed").Inc()
			}
			return
		}
	}
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with periodic pings. It exits when the send channel is closed or a
// write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.gateway.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.gateway.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Warnf("websocket write error for user %s: %v", c.userID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.gateway.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
