package websocket

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quickchat/server/internal/chat/presence"
	commonerrors "github.com/quickchat/server/internal/common/errors"
	"github.com/quickchat/server/internal/common/logger"
	"github.com/quickchat/server/internal/observability/metrics"
)

// Tunables groups the per-connection timing and buffering knobs.
type Tunables struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBufferSize int
}

// Gateway owns all live websocket connections. Registration and removal are
// serialized through its run loop; every presence change is broadcast to the
// remaining connections as an online_users frame.
type Gateway struct {
	registry   *presence.Registry
	lastSeen   *LastSeenUpdater
	log        *logger.Logger
	cfg        Tunables
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopped    chan struct{}
}

func NewGateway(registry *presence.Registry, lastSeen *LastSeenUpdater, log *logger.Logger, cfg Tunables) *Gateway {
	g := &Gateway{
		registry:   registry,
		lastSeen:   lastSeen,
		log:        log,
		cfg:        cfg,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	registry.SetChangeListener(g.broadcastOnlineUsers)
	return g
}

// Run processes registration traffic until Shutdown is called. Mutating the
// registry only from this loop keeps replace-if-matches free of interleaving
// with the broadcast that follows it.
func (g *Gateway) Run() {
	defer close(g.stopped)
	for {
		select {
		case client := <-g.register:
			if replaced := g.registry.Register(client.userID, client); replaced != nil {
				if old, ok := replaced.(*Client); ok {
					old.closeSend()
					metrics.WebSocketDisconnections.WithLabelValues("replaced").Inc()
				}
			} else {
				metrics.WebSocketConnectionsActive.Inc()
			}
			g.log.Infof("user %s connected (%d online)", client.userID, g.registry.Count())

		case client := <-g.unregister:
			if g.registry.Unregister(client.userID, client) {
				metrics.WebSocketConnectionsActive.Dec()
				g.log.Infof("user %s disconnected (%d online)", client.userID, g.registry.Count())
				if g.lastSeen != nil {
					g.lastSeen.Touch(client.userID)
				}
			}
			client.closeSend()

		case <-g.done:
			g.registry.ForEach(func(_ string, h presence.Handle) {
				if client, ok := h.(*Client); ok {
					client.closeSend()
					client.conn.Close()
				}
			})
			return
		}
	}
}

// Attach hands an upgraded connection for an authenticated user to the run
// loop and starts its pumps.
func (g *Gateway) Attach(conn *websocket.Conn, userID string) {
	client := newClient(g, conn, userID)
	g.register <- client
	go client.writePump()
	go client.readPump()
}

// PushToUser delivers an event to the user's live connection, if any.
func (g *Gateway) PushToUser(ctx context.Context, userID string, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	handle, ok := g.registry.Lookup(userID)
	if !ok {
		return commonerrors.ErrUserNotConnected
	}
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	if !handle.Enqueue(payload) {
		return commonerrors.ErrSendTimeout
	}
	return nil
}

func (g *Gateway) IsOnline(userID string) bool {
	return g.registry.IsOnline(userID)
}

// Shutdown stops the run loop and closes every live connection.
func (g *Gateway) Shutdown(ctx context.Context) error {
	close(g.done)
	select {
	case <-g.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) broadcastOnlineUsers(online []string) {
	event, err := NewEvent(TypeOnlineUsers, OnlineUsersPayload{UserIDs: online})
	if err != nil {
		g.log.Errorf("failed to build online_users event: %v", err)
		return
	}
	payload, err := event.Encode()
	if err != nil {
		g.log.Errorf("failed to encode online_users event: %v", err)
		return
	}
	g.registry.ForEach(func(userID string, h presence.Handle) {
		if !h.Enqueue(payload) {
			g.log.Debugf("dropped online_users frame for slow user %s", userID)
		}
	})
}
