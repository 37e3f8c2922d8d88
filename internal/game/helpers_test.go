package game

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/fannielf/bomberman-dom-git/internal/config"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

// sentMessage is one captured outbound message, marshaled at send time
type sentMessage struct {
	ConnID string
	Type   string
	Raw    []byte
}

func (s sentMessage) decode(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(s.Raw, v); err != nil {
		t.Fatalf("decode %s: %v", s.Type, err)
	}
}

// recorder is a Transport capturing everything sent
type recorder struct {
	msgs []sentMessage
}

func (r *recorder) Send(connID string, msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	r.msgs = append(r.msgs, sentMessage{ConnID: connID, Type: msg.MessageType(), Raw: raw})
}

func (r *recorder) ofType(typ string) []sentMessage {
	var out []sentMessage
	for _, m := range r.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) to(connID, typ string) []sentMessage {
	var out []sentMessage
	for _, m := range r.msgs {
		if m.ConnID == connID && m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.msgs = nil
}

// harness drives a Match synchronously with a fake clock
type harness struct {
	t      *testing.T
	m      *Match
	clock  *fakeClock
	timers *TimerQueue
	out    *recorder
}

// testGameConfig is the default ruleset on an open map
func testGameConfig() config.GameConfig {
	cfg := config.DefaultGame()
	cfg.DestructibleDensity = 0
	cfg.Seed = 1
	cfg.Player.MoveCooldown = 100 * time.Millisecond
	return cfg
}

func newHarness(t *testing.T, cfg config.GameConfig) *harness {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	timers := NewTimerQueue(clock.Now)
	out := &recorder{}
	m := NewMatch(cfg, MatchDeps{
		Transport: out,
		Scheduler: timers,
		Clock:     clock.Now,
		Rand:      rand.New(rand.NewSource(cfg.Seed)),
	})
	return &harness{t: t, m: m, clock: clock, timers: timers, out: out}
}

// advance moves the clock forward, firing due timers in deadline order
func (h *harness) advance(d time.Duration) {
	target := h.clock.t.Add(d)
	for {
		next, ok := h.timers.Next()
		if !ok || next.After(target) {
			break
		}
		if next.After(h.clock.t) {
			h.clock.t = next
		}
		for {
			tm, ok := h.timers.PopDue(h.clock.t)
			if !ok {
				break
			}
			h.m.HandleTimer(tm)
		}
	}
	h.clock.t = target
}

// join submits a join and returns the new identity, or "" if refused
func (h *harness) join(connID, nickname string) string {
	h.t.Helper()
	before := len(h.out.to(connID, MsgPlayerJoined))
	h.m.Apply(Intent{Kind: IntentJoin, ConnID: connID, Nickname: nickname})
	joined := h.out.to(connID, MsgPlayerJoined)
	if len(joined) == before {
		return ""
	}
	var msg PlayerJoinedMessage
	joined[len(joined)-1].decode(h.t, &msg)
	return msg.ID
}

func (h *harness) apply(kind IntentKind, connID, id string) {
	h.m.Apply(Intent{Kind: kind, ConnID: connID, PlayerID: id})
}

func (h *harness) move(id string, dir Direction) bool {
	return h.m.tryMove(id, dir)
}

// startRunning joins the nicknames on conns conn-a, conn-b, ... and drives the match
// to running, every client acknowledging the start
func (h *harness) startRunning(nicknames ...string) []string {
	h.t.Helper()
	ids := make([]string, 0, len(nicknames))
	for i, name := range nicknames {
		id := h.join(connName(i), name)
		if id == "" {
			h.t.Fatalf("join %s refused", name)
		}
		ids = append(ids, id)
	}

	h.untilAwaitingAcks()
	for i, id := range ids {
		h.apply(IntentGameStart, connName(i), id)
	}
	if h.m.status != StatusRunning {
		h.t.Fatalf("expected running, got %s", h.m.status)
	}
	return ids
}

// untilAwaitingAcks advances second by second until the countdown is over
func (h *harness) untilAwaitingAcks() {
	h.t.Helper()
	limit := h.m.cfg.GraceSeconds + h.m.cfg.CountdownSeconds + 2
	for i := 0; i < limit && !h.m.awaitingAcks; i++ {
		h.advance(time.Second)
	}
	if !h.m.awaitingAcks {
		h.t.Fatalf("expected start handshake, status %s", h.m.status)
	}
}

func connName(i int) string {
	return "conn-" + string(rune('a'+i))
}

// player returns the live record, failing the test when missing
func (h *harness) player(id string) *Player {
	h.t.Helper()
	p := h.m.players.Get(id)
	if p == nil {
		h.t.Fatalf("player %s not registered", id)
	}
	return p
}

// place moves a player directly, bypassing validation
func (h *harness) place(id string, pos Position) {
	p := h.player(id)
	p.Position = &pos
	p.lastMoveAt = time.Time{}
	p.frozenUntil = time.Time{}
}
