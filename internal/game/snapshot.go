package game

import (
	"sync/atomic"
	"time"
)

// LobbyEntry is one lobby identity as seen from outside the engine
type LobbyEntry struct {
	Nickname  string    `json:"nickname"`
	Connected bool      `json:"connected"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// MatchSnapshot is an immutable copy of the match for readers outside
// the engine goroutine
type MatchSnapshot struct {
	Sequence   uint64       `json:"sequence"` // Monotonic per engine
	Timestamp  time.Time    `json:"timestamp"`
	MatchNum   uint64       `json:"matchNum"`
	Status     Status       `json:"status"`
	Map        *GameMap     `json:"map"`
	Players    []*Player    `json:"players"`
	Bombs      []Bomb       `json:"bombs"`
	Explosions []Explosion  `json:"explosions"`
	Lobby      []LobbyEntry `json:"lobby"`
	MaxPlayers int          `json:"maxPlayers"`
	Countdown  int          `json:"countdown,omitempty"`
	GraceLeft  int          `json:"graceLeft,omitempty"`
}

// AliveCount returns the number of alive players in the snapshot
func (s *MatchSnapshot) AliveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Alive {
			n++
		}
	}
	return n
}

// GameFull reports whether the lobby is at capacity
func (s *MatchSnapshot) GameFull() bool {
	return len(s.Lobby) >= s.MaxPlayers
}

// Snapshot copies the current state. Must be called on the engine goroutine.
func (m *Match) Snapshot() *MatchSnapshot {
	snap := &MatchSnapshot{
		Timestamp:  m.now(),
		MatchNum:   m.matchNum,
		Status:     m.status,
		Map:        m.gameMap.Clone(),
		Players:    m.players.Snapshot(),
		Bombs:      make([]Bomb, 0, len(m.bombs)),
		Explosions: make([]Explosion, 0, len(m.explosions)),
		Lobby:      make([]LobbyEntry, 0, len(m.clientOrder)),
		MaxPlayers: m.cfg.MaxPlayers,
		GraceLeft:  m.graceLeft,
	}
	if m.status == StatusCountdown {
		snap.Countdown = m.countdownLeft
	}
	for _, b := range m.bombs {
		snap.Bombs = append(snap.Bombs, *b)
	}
	// explosion tiles are never mutated after creation
	for _, ex := range m.explosions {
		snap.Explosions = append(snap.Explosions, *ex)
	}
	for _, id := range m.clientOrder {
		c := m.clients[id]
		snap.Lobby = append(snap.Lobby, LobbyEntry{Nickname: c.Nickname, Connected: c.ConnID != "", JoinedAt: c.JoinedAt})
	}
	return snap
}

// snapshotSlot publishes the latest snapshot for lock-free readers
type snapshotSlot struct {
	latest   atomic.Pointer[MatchSnapshot]
	sequence atomic.Uint64
}

// Publish stamps and stores a snapshot
func (s *snapshotSlot) Publish(snap *MatchSnapshot) {
	snap.Sequence = s.sequence.Add(1)
	s.latest.Store(snap)
}

// Load returns the latest published snapshot
func (s *snapshotSlot) Load() *MatchSnapshot {
	return s.latest.Load()
}
