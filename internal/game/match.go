package game

import (
	"math/rand"
	"time"

	"github.com/fannielf/bomberman-dom-git/internal/chat"
	"github.com/fannielf/bomberman-dom-git/internal/config"

	log "github.com/sirupsen/logrus"
)

// IntentKind is the type of an inbound player intent
type IntentKind string

const (
	IntentJoin       IntentKind = "join"
	IntentLobby      IntentKind = "lobby"
	IntentMove       IntentKind = "move"
	IntentPlaceBomb  IntentKind = "placeBomb"
	IntentLeave      IntentKind = "leaveGame"
	IntentPageReload IntentKind = "pageReload"
	IntentGameStart  IntentKind = "gameStart"
	IntentChat       IntentKind = "chat"
)

// Intent is one decoded inbound message together with the connection it came from
type Intent struct {
	Kind      IntentKind
	ConnID    string
	PlayerID  string
	Nickname  string
	Direction Direction
	Page      string
	Text      string
}

// Client is a lobby identity. ConnID is the swappable transport handle;
// it is empty while the identity is detached.
type Client struct {
	ID       string
	Nickname string
	ConnID   string
	JoinedAt time.Time

	detachGen uint64
}

// MatchDeps are the collaborators of a Match
type MatchDeps struct {
	Transport   Transport
	Scheduler   Scheduler
	Clock       func() time.Time
	Rand        *rand.Rand
	Events      EventSink    // optional
	Metrics     Metrics      // optional
	Leaderboard *Leaderboard // optional
}

// Match is the single authoritative game state. It is not safe for
// concurrent use: the Engine goroutine is its only caller.
type Match struct {
	cfg         config.GameConfig
	out         Transport
	timers      Scheduler
	now         func() time.Time
	rng         *rand.Rand
	events      EventSink
	metrics     Metrics
	leaderboard *Leaderboard
	chat        *chat.Handler

	status   Status
	epoch    uint64 // bumped on every clear; match-scoped timers carry it
	matchNum uint64

	clients     map[string]*Client
	clientOrder []string

	gameMap    *GameMap
	players    *Registry
	bombs      []*Bomb
	explosions []*Explosion
	pool       *PowerUpPool

	graceGen      uint64
	graceLeft     int
	countdownLeft int
	awaitingAcks  bool
	acks          map[string]bool
	startedAt     time.Time
	roster        []string // nicknames that started the match
}

// NewMatch creates a match in the waiting state
func NewMatch(cfg config.GameConfig, deps MatchDeps) *Match {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Rand == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		deps.Rand = rand.New(rand.NewSource(seed))
	}
	if deps.Metrics == nil {
		deps.Metrics = NopMetrics{}
	}
	if deps.Leaderboard == nil {
		deps.Leaderboard = NewLeaderboard()
	}

	slots := SpawnSlots(cfg.MapWidth, cfg.MapHeight)
	return &Match{
		cfg:         cfg,
		out:         deps.Transport,
		timers:      deps.Scheduler,
		now:         deps.Clock,
		rng:         deps.Rand,
		events:      deps.Events,
		metrics:     deps.Metrics,
		leaderboard: deps.Leaderboard,
		chat:        chat.NewHandler(cfg.Chat.HistorySize, cfg.Chat.MaxLength),
		status:      StatusWaiting,
		clients:     make(map[string]*Client),
		players:     NewRegistry(slots, cfg.MaxPlayers, cfg.Player),
	}
}

// Status returns the lifecycle state
func (m *Match) Status() Status {
	return m.status
}

// Apply handles one inbound intent
func (m *Match) Apply(in Intent) {
	if in.Kind == IntentJoin {
		m.join(in)
		return
	}

	c := m.clients[in.PlayerID]
	if c == nil {
		m.reply(in.ConnID, NewErrorMessage(ErrClientNotFound.Error()))
		return
	}

	switch in.Kind {
	case IntentLobby:
		m.reply(in.ConnID, m.lobbyMessage())
	case IntentMove:
		m.tryMove(c.ID, in.Direction)
	case IntentPlaceBomb:
		m.placeBomb(c.ID)
	case IntentLeave:
		m.dropClient(c, "leave")
	case IntentPageReload:
		m.pageReload(c, in.ConnID, in.Page)
	case IntentGameStart:
		m.ackStart(c, in.ConnID)
	case IntentChat:
		m.postChat(c, in.Text)
	default:
		m.reply(in.ConnID, NewErrorMessage("Unknown message type"))
	}
}

// Disconnect handles a closed connection. Identities bound to another
// connection are untouched; the bound identity gets a reconnect grace.
func (m *Match) Disconnect(connID string) {
	c := m.clientByConn(connID)
	if c == nil {
		return
	}

	if m.cfg.ReconnectGrace <= 0 {
		m.dropClient(c, "disconnect")
		return
	}

	c.ConnID = ""
	c.detachGen++
	m.timers.Schedule(m.cfg.ReconnectGrace, Timer{Kind: TimerReconnectGrace, EntityID: c.ID, Gen: c.detachGen})
	log.WithFields(log.Fields{"player": c.Nickname}).Debug("🔌 Connection lost, waiting for reconnect")
}

// HandleTimer runs a fired timer. Stale timers are no-ops.
func (m *Match) HandleTimer(t Timer) {
	switch t.Kind {
	case TimerGraceTick:
		m.onGraceTick(t)
	case TimerCountdownTick:
		m.onCountdownTick(t)
	case TimerStartAck:
		if t.Gen == m.epoch {
			m.startMatch()
		}
	case TimerBombFuse:
		m.onBombFuse(t)
	case TimerExplosionExpire:
		m.onExplosionExpire(t)
	case TimerRespawn:
		m.onRespawn(t)
	case TimerReset:
		if t.Gen == m.epoch && m.status == StatusEnded {
			m.reset()
		}
	case TimerReconnectGrace:
		c := m.clients[t.EntityID]
		if c != nil && c.ConnID == "" && c.detachGen == t.Gen {
			m.dropClient(c, "disconnect")
		}
	}
}

// =============================================================================
// OUTBOUND HELPERS
// =============================================================================

// broadcast sends to every bound lobby identity. The connection id is read
// at send time so a rebind is always honored.
func (m *Match) broadcast(msg Message) {
	for _, id := range m.clientOrder {
		if c := m.clients[id]; c.ConnID != "" {
			m.out.Send(c.ConnID, msg)
		}
	}
}

// reply sends to a single connection
func (m *Match) reply(connID string, msg Message) {
	if connID != "" {
		m.out.Send(connID, msg)
	}
}

func (m *Match) lobbyMessage() *LobbyMessage {
	names := make([]string, 0, len(m.clientOrder))
	for _, id := range m.clientOrder {
		names = append(names, m.clients[id].Nickname)
	}
	return &LobbyMessage{
		Header:      Header{MsgUpdatePlayerCount},
		Count:       len(names),
		Players:     names,
		GameFull:    len(names) >= m.cfg.MaxPlayers,
		ChatHistory: m.chat.History(),
	}
}

func (m *Match) broadcastLobby() {
	m.broadcast(m.lobbyMessage())
}

func (m *Match) emit(t EventType, playerID string, payload interface{}) {
	if m.events != nil {
		m.events.EmitSimple(t, m.matchNum, playerID, payload)
	}
}

func (m *Match) setStatus(s Status) {
	if m.status == s {
		return
	}
	log.Printf("🎮 Match status %s -> %s", m.status, s)
	m.status = s
	m.metrics.StatusChanged(s)
}

func (m *Match) clientByConn(connID string) *Client {
	if connID == "" {
		return nil
	}
	for _, id := range m.clientOrder {
		if c := m.clients[id]; c.ConnID == connID {
			return c
		}
	}
	return nil
}

// bind points an identity at a new connection and cancels any pending
// reconnect grace
func (m *Match) bind(c *Client, connID string) {
	if other := m.clientByConn(connID); other != nil && other != c {
		return
	}
	c.ConnID = connID
	c.detachGen++
}
