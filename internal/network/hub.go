package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/MRamiBalles/pocketmonster/internal/engine"
	"github.com/MRamiBalles/pocketmonster/internal/i18n"
	"github.com/MRamiBalles/pocketmonster/internal/platform/logger"
	"github.com/MRamiBalles/pocketmonster/internal/platform/metrics"
)

// DefaultNoticeTTL is how long the front-end shows a notice.
const DefaultNoticeTTL = 2 * time.Second

// outbound is one broadcast. Notices are rendered per client locale;
// everything else is pre-encoded.
type outbound struct {
	payload []byte
	notice  *engine.Notice
}

// Hub maintains the set of active clients and broadcasts messages to them.
// It implements engine.Notifier.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex

	catalog    *i18n.Catalog
	noticeTTL  time.Duration
	maxClients int
	logger     *logger.Logger
	metrics    *metrics.Collector
}

// HubOptions sizes the hub.
type HubOptions struct {
	BroadcastBuffer int
	MaxClients      int // 0 means unlimited
	NoticeTTL       time.Duration
}

// NewHub initializes a new WebSocket Hub.
func NewHub(catalog *i18n.Catalog, log *logger.Logger, m *metrics.Collector, opts HubOptions) *Hub {
	if opts.BroadcastBuffer <= 0 {
		opts.BroadcastBuffer = 256
	}
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = DefaultNoticeTTL
	}
	if log == nil {
		log = logger.Discard()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Hub{
		broadcast:  make(chan outbound, opts.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		catalog:    catalog,
		noticeTTL:  opts.NoticeTTL,
		maxClients: opts.MaxClients,
		logger:     log,
		metrics:    m,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.maxClients > 0 && len(h.clients) >= h.maxClients {
				h.mu.Unlock()
				h.logger.Warnf("Rejecting WebSocket client: %d clients connected", h.maxClients)
				close(client.send)
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Infof("New WebSocket client connected (%s)", client.locale)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rendered := make(map[language.Tag][]byte)
	for client := range h.clients {
		payload := message.payload
		if message.notice != nil {
			var ok bool
			if payload, ok = rendered[client.locale]; !ok {
				payload = h.encodeNotice(*message.notice, client.locale)
				rendered[client.locale] = payload
			}
		}
		if payload == nil {
			continue
		}

		select {
		case client.send <- payload:
			h.metrics.RecordWSMessage(false)
		default:
			close(client.send)
			delete(h.clients, client)
			h.metrics.RecordWSConnection(-1)
			h.metrics.RecordWSError()
			h.logger.Warn("Dropped slow WebSocket client")
		}
	}
}

// sendTo queues payload for one registered client, dropping it if the buffer is full.
func (h *Hub) sendTo(c *Client, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- payload:
		h.metrics.RecordWSMessage(false)
	default:
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Refresh implements engine.Notifier.
func (h *Hub) Refresh(s engine.Snapshot) {
	h.enqueue(outbound{payload: h.encode(StateMessage{Type: MsgState, Snapshot: s})})
}

// Notify implements engine.Notifier.
func (h *Hub) Notify(n engine.Notice) {
	h.enqueue(outbound{notice: &n})
}

// Cue implements engine.Notifier.
func (h *Hub) Cue(c engine.Cue) {
	h.enqueue(outbound{payload: h.encode(CueMessage{Type: MsgCue, Cue: c})})
}

// enqueue never blocks; the engine calls it with its lock held.
func (h *Hub) enqueue(m outbound) {
	if m.payload == nil && m.notice == nil {
		return
	}
	select {
	case h.broadcast <- m:
	default:
		h.metrics.RecordWSError()
		h.logger.Warn("Broadcast buffer full, dropping message")
	}
}

// NoticeMessage renders n for one locale.
func (h *Hub) NoticeMessage(n engine.Notice, tag language.Tag) NoticeMessage {
	msgType := MsgNotice
	if n.Terminal {
		msgType = MsgGameOver
	}
	return NoticeMessage{
		Type:     msgType,
		Code:     string(n.Key),
		Text:     h.catalog.Render(tag, n.Key, n.Args...),
		TTLMs:    h.noticeTTL.Milliseconds(),
		Terminal: n.Terminal,
	}
}

func (h *Hub) encodeNotice(n engine.Notice, tag language.Tag) []byte {
	return h.encode(h.NoticeMessage(n, tag))
}

func (h *Hub) encode(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Errorf("Failed to serialize message for WebSocket broadcast: %v", err)
		return nil
	}
	return payload
}

var _ engine.Notifier = (*Hub)(nil)
