package handlers

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/chefwhisper/recipe-viewer/internal/logger"
	"github.com/chefwhisper/recipe-viewer/internal/models"
	"github.com/chefwhisper/recipe-viewer/internal/render"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
	sendBuffer = 64
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string `json:"type"` // render | update | remove | notify | clear
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins for production
}

// Hub fans timer card mutations out to every connected socket and remembers
// which cards are on screen, so a late joiner gets the current card set
// replayed before any live traffic.
type Hub struct {
	log *logger.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	cards   map[string]models.Timer
}

var _ render.Screen = (*Hub)(nil)

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*wsClient]struct{}),
		cards:   make(map[string]models.Timer),
	}
}

type wsClient struct {
	conn *websocket.Conn
	send chan wsEnvelope
}

// Render materializes a card and announces it.
func (h *Hub) Render(t models.Timer) error {
	h.mu.Lock()
	h.cards[t.ID] = t
	h.broadcastLocked(wsEnvelope{Type: "render", Data: t})
	h.mu.Unlock()
	return nil
}

// Update mutates an existing card in place.
func (h *Hub) Update(t models.Timer) error {
	h.mu.Lock()
	h.cards[t.ID] = t
	h.broadcastLocked(wsEnvelope{Type: "update", Data: t})
	h.mu.Unlock()
	return nil
}

// Remove detaches a card.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	delete(h.cards, id)
	h.broadcastLocked(wsEnvelope{Type: "remove", Data: map[string]string{"id": id}})
	h.mu.Unlock()
}

// Has reports whether a card is currently on screen.
func (h *Hub) Has(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.cards[id]
	return ok
}

// Notify fires the completion side-channel without touching the card.
func (h *Hub) Notify(t models.Timer) {
	h.mu.Lock()
	h.broadcastLocked(wsEnvelope{Type: "notify", Data: t})
	h.mu.Unlock()
}

// Clear drops every card.
func (h *Hub) Clear() {
	h.mu.Lock()
	h.cards = make(map[string]models.Timer)
	h.broadcastLocked(wsEnvelope{Type: "clear"})
	h.mu.Unlock()
}

// Cards returns the current card set, oldest first.
func (h *Hub) Cards() []models.Timer {
	h.mu.Lock()
	out := make([]models.Timer, 0, len(h.cards))
	for _, t := range h.cards {
		out = append(out, t)
	}
	h.mu.Unlock()

	sortCards(out)
	return out
}

// broadcastLocked queues env on every client. A client whose buffer is full
// is too far behind to recover and gets dropped.
func (h *Hub) broadcastLocked(env wsEnvelope) {
	for c := range h.clients {
		select {
		case c.send <- env:
		default:
			delete(h.clients, c)
			close(c.send)
			if h.log != nil {
				h.log.Infow("ws_client_dropped", "reason", "send buffer full")
			}
		}
	}
}

// register attaches a new connection and queues the card replay.
func (h *Hub) register(conn *websocket.Conn) *wsClient {
	c := &wsClient{conn: conn, send: make(chan wsEnvelope, sendBuffer)}

	h.mu.Lock()
	replay := make([]models.Timer, 0, len(h.cards))
	for _, t := range h.cards {
		replay = append(replay, t)
	}
	sortCards(replay)
	for _, t := range replay {
		select {
		case c.send <- wsEnvelope{Type: "render", Data: t}:
		default:
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// unregister detaches a client if it is still attached.
func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func sortCards(cards []models.Timer) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].ID < cards[j].ID
		}
		return cards[i].CreatedAt.Before(cards[j].CreatedAt)
	})
}

func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}

	client := h.hub.register(conn)
	go h.writePump(client)
	h.readPump(client)
}

// writePump drains the client's send queue and keeps the connection alive
// with periodic pings.
func (h *Handler) writePump(c *wsClient) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		}
	}
}

// readPump drains incoming messages to handle control frames and detect
// closure. Clients never send application data.
func (h *Handler) readPump(c *wsClient) {
	defer func() {
		h.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}
