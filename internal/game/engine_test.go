package game

import (
	"context"
	"sync"
	"testing"
	"time"
)

// syncRecorder is a Transport safe to read from the test goroutine
type syncRecorder struct {
	mu      sync.Mutex
	types   []string
	panicOn string
}

func (r *syncRecorder) Send(connID string, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.MessageType() == r.panicOn {
		r.panicOn = ""
		panic("transport exploded")
	}
	r.types = append(r.types, msg.MessageType())
}

func (r *syncRecorder) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.types {
		if t == typ {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// TestEngineStartStop verifies the engine can start and stop without panics
func TestEngineStartStop(t *testing.T) {
	engine := NewEngine(testGameConfig(), &syncRecorder{}, EngineOptions{})

	engine.Start()
	engine.Start()
	engine.Stop()

	// Should not panic on double stop
	engine.Stop()

	if engine.Dispatch(Intent{Kind: IntentJoin, ConnID: "c1", Nickname: "late"}) {
		t.Error("Dispatch after Stop should report false")
	}
}

// TestEngineSnapshots verifies intents are applied and published
func TestEngineSnapshots(t *testing.T) {
	out := &syncRecorder{}
	engine := NewEngine(testGameConfig(), out, EngineOptions{})
	engine.Start()
	defer engine.Stop()

	first := engine.Snapshot()
	if first == nil || first.Status != StatusWaiting {
		t.Fatalf("Expected an initial waiting snapshot, got %+v", first)
	}

	engine.Dispatch(Intent{Kind: IntentJoin, ConnID: "c1", Nickname: "alice"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := engine.WaitSnapshot(ctx, first.Sequence)
	if err != nil {
		t.Fatalf("WaitSnapshot: %v", err)
	}
	if len(snap.Lobby) != 1 || snap.Lobby[0].Nickname != "alice" || !snap.Lobby[0].Connected {
		t.Errorf("Unexpected lobby %+v", snap.Lobby)
	}
	if snap.GameFull() {
		t.Error("One player should not fill the lobby")
	}

	engine.Disconnect("c1")
	waitFor(t, func() bool {
		s := engine.Snapshot()
		return len(s.Lobby) == 1 && !s.Lobby[0].Connected
	})
}

// TestEngineFiresTimers verifies queued timers run on the engine goroutine
func TestEngineFiresTimers(t *testing.T) {
	cfg := testGameConfig()
	cfg.GraceSeconds = 1
	cfg.CountdownSeconds = 1
	cfg.StartAckTimeout = 50 * time.Millisecond

	out := &syncRecorder{}
	engine := NewEngine(cfg, out, EngineOptions{})
	engine.Start()
	defer engine.Stop()

	engine.Dispatch(Intent{Kind: IntentJoin, ConnID: "c1", Nickname: "alice"})
	engine.Dispatch(Intent{Kind: IntentJoin, ConnID: "c2", Nickname: "bob"})

	waitFor(t, func() bool { return engine.Snapshot().Status == StatusRunning })
	if out.count(MsgGameStarted) != 2 {
		t.Errorf("Expected gameStarted to both clients, got %d", out.count(MsgGameStarted))
	}
	if n := len(engine.Snapshot().Players); n != 2 {
		t.Errorf("Expected 2 players in the snapshot, got %d", n)
	}
}

// TestEngineRecoversPanics verifies a failing handler does not stop the loop
func TestEngineRecoversPanics(t *testing.T) {
	out := &syncRecorder{panicOn: MsgPlayerJoined}
	engine := NewEngine(testGameConfig(), out, EngineOptions{})
	engine.Start()
	defer engine.Stop()

	engine.Dispatch(Intent{Kind: IntentJoin, ConnID: "c1", Nickname: "alice"})
	engine.Dispatch(Intent{Kind: IntentJoin, ConnID: "c2", Nickname: "bob"})

	waitFor(t, func() bool { return out.count(MsgPlayerJoined) == 1 })
}

// TestEngineWaitSnapshotCancelled verifies the context bounds the wait
func TestEngineWaitSnapshotCancelled(t *testing.T) {
	engine := NewEngine(testGameConfig(), &syncRecorder{}, EngineOptions{})
	engine.Start()
	defer engine.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := engine.WaitSnapshot(ctx, engine.Snapshot().Sequence); err == nil {
		t.Error("Expected a timeout with no activity")
	}
}
