package network

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"github.com/MRamiBalles/pocketmonster/internal/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// DefaultRateLimit is the minimum gap between two actions from one client.
	DefaultRateLimit = 250 * time.Millisecond
)

// Controller is what clients and HTTP handlers drive. *engine.Engine implements it.
type Controller interface {
	Do(ctx context.Context, a engine.Action) (engine.Outcome, bool)
	Save(ctx context.Context) error
	Snapshot() engine.Snapshot
}

// Client is one WebSocket connection.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	controller Controller
	locale     language.Tag
	rateLimit  time.Duration

	lastActionTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn, controller Controller, locale language.Tag, sendBuffer int, rateLimit time.Duration) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		controller: controller,
		locale:     locale,
		rateLimit:  rateLimit,
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// Greet queues the current state and an optional notice for this client only.
// Call before the pumps start.
func (c *Client) Greet(s engine.Snapshot, n *engine.Notice) {
	if payload := c.hub.encode(StateMessage{Type: MsgState, Snapshot: s}); payload != nil {
		c.send <- payload
	}
	if n != nil {
		if payload := c.hub.encodeNotice(*n, c.locale); payload != nil {
			c.send <- payload
		}
	}
}

// ReadPump pumps messages from the websocket connection to the controller.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warnf("WebSocket read error: %v", err)
				c.hub.metrics.RecordWSError()
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.logger.Error("Failed to parse ClientMessage from WebSocket. err: " + err.Error())
			continue
		}

		c.handleMessage(msg, time.Now())
	}
}

func (c *Client) handleMessage(msg ClientMessage, now time.Time) {
	// Rate Limiting Check
	if c.rateLimit > 0 && !c.lastActionTime.IsZero() && now.Sub(c.lastActionTime) < c.rateLimit {
		c.hub.logger.Warn("Rate limit exceeded for client action " + msg.Type)
		return
	}
	c.lastActionTime = now

	if strings.EqualFold(msg.Type, MsgSave) {
		if err := c.controller.Save(context.Background()); err != nil {
			c.reply(ErrorMessage{Type: MsgError, Message: err.Error()})
		}
		return
	}

	action, ok := engine.ParseAction(msg.Type)
	if !ok {
		c.hub.logger.Warn("Unknown ClientMessage type: " + msg.Type)
		c.reply(ErrorMessage{Type: MsgError, Message: "unknown message type " + msg.Type})
		return
	}
	// Notices, cues and the refresh come back through the hub broadcast.
	c.controller.Do(context.Background(), action)
}

// reply queues a message for this client only.
func (c *Client) reply(v interface{}) {
	if payload := c.hub.encode(v); payload != nil {
		c.hub.sendTo(c, payload)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// Each message is its own text frame.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
