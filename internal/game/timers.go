package game

import (
	"container/heap"
	"time"
)

// TimerKind identifies what a scheduled event does when it fires
type TimerKind uint8

const (
	TimerGraceTick       TimerKind = iota + 1 // waiting-room grace window, every second
	TimerCountdownTick                        // pre-match countdown, every second
	TimerStartAck                             // gameStart ack timeout
	TimerBombFuse                             // bomb detonation
	TimerExplosionExpire                      // explosion visual lifetime over
	TimerRespawn                              // hit player returns to spawn
	TimerReset                                // ended match returns to waiting
	TimerReconnectGrace                       // dropped identity cleanup
)

// String returns a human-readable timer kind
func (k TimerKind) String() string {
	switch k {
	case TimerGraceTick:
		return "grace_tick"
	case TimerCountdownTick:
		return "countdown_tick"
	case TimerStartAck:
		return "start_ack"
	case TimerBombFuse:
		return "bomb_fuse"
	case TimerExplosionExpire:
		return "explosion_expire"
	case TimerRespawn:
		return "respawn"
	case TimerReset:
		return "reset"
	case TimerReconnectGrace:
		return "reconnect_grace"
	default:
		return "unknown"
	}
}

// Timer is a scheduled event. Gen must still match the owner's generation
// when the timer fires, otherwise the event is stale and ignored.
type Timer struct {
	Kind     TimerKind
	EntityID string
	Gen      uint64
}

// Scheduler accepts timers relative to the current time
type Scheduler interface {
	Schedule(after time.Duration, t Timer)
}

type timerEntry struct {
	at  time.Time
	seq uint64 // FIFO among equal deadlines
	t   Timer
}

type timerHeap []timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// TimerQueue is a deadline-ordered queue of timers. It is owned by the
// engine goroutine and is not safe for concurrent use.
type TimerQueue struct {
	h   timerHeap
	seq uint64
	now func() time.Time
}

// NewTimerQueue creates a queue reading time from now
func NewTimerQueue(now func() time.Time) *TimerQueue {
	if now == nil {
		now = time.Now
	}
	return &TimerQueue{now: now}
}

// Schedule adds a timer firing after the given delay
func (q *TimerQueue) Schedule(after time.Duration, t Timer) {
	q.seq++
	heap.Push(&q.h, timerEntry{at: q.now().Add(after), seq: q.seq, t: t})
}

// Next returns the earliest deadline
func (q *TimerQueue) Next() (time.Time, bool) {
	if len(q.h) == 0 {
		return time.Time{}, false
	}
	return q.h[0].at, true
}

// PopDue removes and returns the earliest timer if it is due at now
func (q *TimerQueue) PopDue(now time.Time) (Timer, bool) {
	if len(q.h) == 0 || q.h[0].at.After(now) {
		return Timer{}, false
	}
	e := heap.Pop(&q.h).(timerEntry)
	return e.t, true
}

// Len returns the number of pending timers
func (q *TimerQueue) Len() int {
	return len(q.h)
}
