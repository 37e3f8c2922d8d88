package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	EventBufferSize    = 1024                   // Ring buffer size
	MaxEventsPerSec    = 2000                   // Global rate limit
	MaxEventsPerPlayer = 50                     // Per-player rate limit per second
	BatchFlushSize     = 64                     // Events per batch write
	BatchFlushInterval = 250 * time.Millisecond // How often to flush
	PlayerLimiterIdle  = 5 * time.Minute        // Idle limiters are dropped after this
)

// EventLog is a bounded, rate-limited audit log written as JSONL.
// Emit never blocks the engine goroutine; a background writer flushes batches.
type EventLog struct {
	mu     sync.Mutex
	ring   []Event
	head   int // next read index
	size   int // buffered events
	seq    uint64
	output io.Writer
	closer io.Closer

	// Rate limiting for flood protection
	globalLimiter  *rate.Limiter
	playerLimiters map[string]*playerLimiterEntry

	stopChan chan struct{}
	stopOnce sync.Once
	writerWg sync.WaitGroup
	running  atomic.Bool

	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
	writtenCount atomic.Uint64
}

// playerLimiterEntry tracks per-player rate limiting
type playerLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewEventLog creates a new bounded event log
func NewEventLog() *EventLog {
	return &EventLog{
		ring:           make([]Event, EventBufferSize),
		globalLimiter:  rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		playerLimiters: make(map[string]*playerLimiterEntry),
		stopChan:       make(chan struct{}),
	}
}

// Start opens filePath for append and begins the writer goroutine
func (el *EventLog) Start(filePath string) error {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	el.closer = file
	return el.StartWriter(file)
}

// StartWriter begins the writer goroutine flushing to w
func (el *EventLog) StartWriter(w io.Writer) error {
	if el.running.Load() {
		return nil
	}
	el.output = w
	el.running.Store(true)
	el.writerWg.Add(1)
	go el.writerLoop()
	return nil
}

// Stop flushes pending events and closes the output
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Load() {
			return
		}
		close(el.stopChan)
		el.writerWg.Wait()
		el.running.Store(false)
		if el.closer != nil {
			if err := el.closer.Close(); err != nil {
				log.Printf("⚠️ Event log close: %v", err)
			}
		}
	})
}

// Emit buffers an event. Returns false if rate limited or the log is stopped.
// A full ring drops its oldest event.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}
	if !el.globalLimiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	if event.PlayerID != "" && !el.playerLimiter(event.PlayerID).Allow() {
		el.droppedCount.Add(1)
		return false
	}

	if el.size == len(el.ring) {
		el.head = (el.head + 1) % len(el.ring)
		el.size--
		el.droppedCount.Add(1)
	}

	el.seq++
	event.Sequence = el.seq
	el.ring[(el.head+el.size)%len(el.ring)] = event
	el.size++

	el.totalCount.Add(1)
	return true
}

// EmitSimple is a convenience method to emit an event with automatic creation
func (el *EventLog) EmitSimple(eventType EventType, matchNum uint64, playerID string, payload interface{}) bool {
	return el.Emit(NewEvent(eventType, matchNum, playerID, payload))
}

// playerLimiter returns or creates a per-player limiter. Caller holds mu.
func (el *EventLog) playerLimiter(playerID string) *rate.Limiter {
	now := time.Now()
	if entry, ok := el.playerLimiters[playerID]; ok {
		entry.lastUsed = now
		return entry.limiter
	}
	entry := &playerLimiterEntry{
		limiter:  rate.NewLimiter(MaxEventsPerPlayer, MaxEventsPerPlayer/5),
		lastUsed: now,
	}
	el.playerLimiters[playerID] = entry
	return entry.limiter
}

// writerLoop batches and writes events asynchronously
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	lastCleanup := time.Now()

	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}

		case now := <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
			if now.Sub(lastCleanup) >= PlayerLimiterIdle {
				el.cleanupPlayerLimiters(now)
				lastCleanup = now
			}
		}
	}
}

// cleanupPlayerLimiters removes limiters of players no longer emitting
func (el *EventLog) cleanupPlayerLimiters(now time.Time) {
	cutoff := now.Add(-PlayerLimiterIdle)
	el.mu.Lock()
	defer el.mu.Unlock()
	for id, entry := range el.playerLimiters {
		if entry.lastUsed.Before(cutoff) {
			delete(el.playerLimiters, id)
		}
	}
}

// collectBatch moves up to BatchFlushSize events out of the ring
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	for el.size > 0 && len(batch) < BatchFlushSize {
		batch = append(batch, el.ring[el.head])
		el.ring[el.head] = Event{}
		el.head = (el.head + 1) % len(el.ring)
		el.size--
	}
	return batch
}

// flushBatch writes events as newline-delimited JSON
func (el *EventLog) flushBatch(batch []Event) {
	w := bufio.NewWriter(el.output)
	enc := json.NewEncoder(w)
	for _, event := range batch {
		if err := enc.Encode(event); err != nil {
			continue
		}
		el.writtenCount.Add(1)
	}
	if err := w.Flush(); err != nil {
		log.Printf("⚠️ Event log write: %v", err)
	}
}

// GetStats returns metrics for monitoring
func (el *EventLog) GetStats() map[string]interface{} {
	el.mu.Lock()
	pending := el.size
	el.mu.Unlock()

	return map[string]interface{}{
		"total":   el.totalCount.Load(),
		"dropped": el.droppedCount.Load(),
		"written": el.writtenCount.Load(),
		"pending": pending,
		"running": el.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return el.droppedCount.Load()
}
