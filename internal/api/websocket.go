package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fannielf/bomberman-dom-git/internal/game"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// SendQueueSize bounds outbound messages waiting for a slow client
	SendQueueSize = 64

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Protocol error replies
const (
	errInvalidJSON  = "Invalid JSON format"
	errUnknownType  = "Unknown message type"
	errServerClosed = "Server is shutting down"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}

		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// Dispatcher is the part of the engine the hub feeds inbound traffic to
type Dispatcher interface {
	Dispatch(in game.Intent) bool
	Disconnect(connID string) bool
}

// inboundEnvelope is the union of every inbound message's fields
type inboundEnvelope struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Direction string `json:"direction"`
	Page      string `json:"page"`
	Message   string `json:"message"`
}

var intentKinds = map[string]game.IntentKind{
	string(game.IntentJoin):       game.IntentJoin,
	string(game.IntentLobby):      game.IntentLobby,
	string(game.IntentMove):       game.IntentMove,
	string(game.IntentPlaceBomb):  game.IntentPlaceBomb,
	string(game.IntentLeave):      game.IntentLeave,
	string(game.IntentPageReload): game.IntentPageReload,
	string(game.IntentGameStart):  game.IntentGameStart,
	string(game.IntentChat):       game.IntentChat,
}

// decodeIntent turns one frame into an intent. The reply string is the
// protocol error to send back when ok is false.
func decodeIntent(connID string, data []byte) (in game.Intent, reply string, ok bool) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return game.Intent{}, errInvalidJSON, false
	}
	kind, known := intentKinds[env.Type]
	if !known {
		return game.Intent{}, errUnknownType, false
	}
	return game.Intent{
		Kind:      kind,
		ConnID:    connID,
		PlayerID:  env.ID,
		Nickname:  env.Nickname,
		Direction: game.Direction(env.Direction),
		Page:      env.Page,
		Text:      env.Message,
	}, "", true
}

// wsClient is one socket. The engine only ever sees its id.
type wsClient struct {
	id      string
	conn    *websocket.Conn
	ip      string
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// WebSocketHub manages all WebSocket connections with DoS protection.
// It implements game.Transport.
type WebSocketHub struct {
	clients map[string]*wsClient
	mu      sync.RWMutex
	engine  Dispatcher

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter

	dropped atomic.Uint64
}

var _ game.Transport = (*WebSocketHub)(nil)

// NewWebSocketHub creates a new hub with connection limiting
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:   make(map[string]*wsClient),
		wsLimiter: NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// Attach sets the engine that receives inbound intents. The hub is built
// before the engine because the engine sends through it.
func (h *WebSocketHub) Attach(engine Dispatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine = engine
}

func (h *WebSocketHub) dispatcher() Dispatcher {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine
}

// Send marshals msg and queues it for connID. A full queue drops the
// message; an unknown id is ignored.
func (h *WebSocketHub) Send(connID string, msg game.Message) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("⚠️ Failed to encode %s: %v", msg.MessageType(), err)
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
		IncrementWSMessages()
	default:
		h.dropped.Add(1)
		IncrementWSDropped()
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetStats returns hub counters for /api/stats
func (h *WebSocketHub) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"connections": h.ClientCount(),
		"dropped":     h.dropped.Load(),
		"rejected":    h.wsLimiter.Rejected(),
	}
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	c := &wsClient{
		id:      uuid.NewString(),
		conn:    conn,
		ip:      ip,
		send:    make(chan []byte, SendQueueSize),
		done:    make(chan struct{}),
		limiter: newFrameLimiter(),
	}
	h.add(c)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *WebSocketHub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()

	log.WithFields(log.Fields{"conn": c.id, "ip": c.ip}).Infof("📱 Client connected (%d total)", count)
	UpdateWSConnections(count)
}

// remove unregisters c and tells the engine the socket closed
func (h *WebSocketHub) remove(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	count := len(h.clients)
	engine := h.engine
	h.mu.Unlock()

	c.close()
	if !ok {
		return
	}

	h.wsLimiter.Release(c.ip)
	UpdateWSConnections(count)
	log.WithField("conn", c.id).Infof("📱 Client disconnected (%d remaining)", count)

	if engine != nil {
		engine.Disconnect(c.id)
	}
}

func (h *WebSocketHub) readPump(c *wsClient) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("conn", c.id).Debugf("WebSocket read error: %v", err)
			}
			return
		}

		if !c.limiter.Allow() {
			RecordConnectionRejected("frame_limit")
			continue
		}
		h.handleFrame(c, data)
	}
}

func (h *WebSocketHub) handleFrame(c *wsClient, data []byte) {
	in, reply, ok := decodeIntent(c.id, data)
	if !ok {
		if reply == errInvalidJSON {
			RecordFrame("invalid")
		} else {
			RecordFrame("unknown")
		}
		h.Send(c.id, game.NewErrorMessage(reply))
		return
	}
	RecordFrame(string(in.Kind))

	engine := h.dispatcher()
	if engine == nil || !engine.Dispatch(in) {
		h.Send(c.id, game.NewErrorMessage(errServerClosed))
	}
}

func (h *WebSocketHub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// CloseAll drops every connection, used on shutdown
func (h *WebSocketHub) CloseAll() {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		c.close()
	}
}
