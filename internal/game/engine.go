package game

import (
	"context"
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"github.com/fannielf/bomberman-dom-git/internal/config"

	log "github.com/sirupsen/logrus"
)

// InboxSize bounds intents waiting for the engine goroutine
const InboxSize = 256

// EngineOptions are optional collaborators of an Engine
type EngineOptions struct {
	Metrics Metrics
	Clock   func() time.Time
	Rand    *rand.Rand
}

// command is one unit of work for the engine goroutine
type command struct {
	intent     *Intent
	disconnect string
}

// Engine owns the Match on a single goroutine. Intents, disconnects and
// fired timers are processed one at a time, so the match needs no locks.
type Engine struct {
	mu      sync.Mutex
	running bool

	match       *Match
	timers      *TimerQueue
	now         func() time.Time
	inbox       chan command
	stopChan    chan struct{}
	done        chan struct{}
	snapshots   snapshotSlot
	leaderboard *Leaderboard

	// Event sourcing for auditing finished matches
	eventLog *EventLog
}

// NewEngine creates an engine sending outbound messages through out
func NewEngine(cfg config.GameConfig, out Transport, opts EngineOptions) *Engine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	e := &Engine{
		now:         opts.Clock,
		timers:      NewTimerQueue(opts.Clock),
		inbox:       make(chan command, InboxSize),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		leaderboard: NewLeaderboard(),
		eventLog:    NewEventLog(),
	}
	e.match = NewMatch(cfg, MatchDeps{
		Transport:   out,
		Scheduler:   e.timers,
		Clock:       opts.Clock,
		Rand:        opts.Rand,
		Events:      e.eventLog,
		Metrics:     opts.Metrics,
		Leaderboard: e.leaderboard,
	})
	e.snapshots.Publish(e.match.Snapshot())
	return e
}

// Start begins the engine loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	go e.run()
	log.Printf("🎮 Game engine started")
}

// Stop stops the engine loop and waits for it to exit
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopChan)
	e.mu.Unlock()

	<-e.done
	log.Println("🛑 Game engine stopped")
}

// Dispatch queues an intent. Returns false once the engine is stopped.
func (e *Engine) Dispatch(in Intent) bool {
	return e.enqueue(command{intent: &in})
}

// Disconnect reports a closed connection
func (e *Engine) Disconnect(connID string) bool {
	return e.enqueue(command{disconnect: connID})
}

func (e *Engine) enqueue(cmd command) bool {
	select {
	case <-e.stopChan:
		return false
	default:
	}
	select {
	case e.inbox <- cmd:
		return true
	case <-e.stopChan:
		return false
	}
}

// Snapshot returns the latest published match state
func (e *Engine) Snapshot() *MatchSnapshot {
	return e.snapshots.Load()
}

// WaitSnapshot blocks until a snapshot newer than seq is published
func (e *Engine) WaitSnapshot(ctx context.Context, seq uint64) (*MatchSnapshot, error) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if snap := e.snapshots.Load(); snap.Sequence > seq {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-e.done:
			return nil, ErrEngineStopped
		case <-ticker.C:
		}
	}
}

// Leaderboard returns the cross-match win tally
func (e *Engine) Leaderboard() *Leaderboard {
	return e.leaderboard
}

// StartEventLog initializes the audit log
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog flushes and closes the audit log
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns audit log statistics for monitoring
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

// run is the engine goroutine. A single time.Timer is armed to the
// earliest pending deadline.
func (e *Engine) run() {
	defer close(e.done)

	wake := time.NewTimer(time.Hour)
	stopTimer(wake)

	for {
		var wakeC <-chan time.Time
		if at, ok := e.timers.Next(); ok {
			stopTimer(wake)
			wake.Reset(at.Sub(e.now()))
			wakeC = wake.C
		}

		select {
		case cmd := <-e.inbox:
			e.safely(func() {
				if cmd.intent != nil {
					e.match.Apply(*cmd.intent)
				} else {
					e.match.Disconnect(cmd.disconnect)
				}
			})
		case <-wakeC:
			e.fireDue()
		case <-e.stopChan:
			stopTimer(wake)
			return
		}

		e.snapshots.Publish(e.match.Snapshot())
	}
}

// fireDue runs every timer whose deadline has passed
func (e *Engine) fireDue() {
	now := e.now()
	for {
		t, ok := e.timers.PopDue(now)
		if !ok {
			return
		}
		e.safely(func() { e.match.HandleTimer(t) })
	}
}

// safely keeps a panicking handler from killing the engine goroutine
func (e *Engine) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Errorf("❌ Engine handler panic\n%s", debug.Stack())
		}
	}()
	fn()
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
