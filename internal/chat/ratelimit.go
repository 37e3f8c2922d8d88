package chat

import (
	"sync"
	"time"
)

// RateLimiter implements per-sender message rate limiting
type RateLimiter struct {
	mu        sync.Mutex
	senders   map[string]*senderLimit
	config    RateLimitConfig
	lastPrune time.Time
}

type senderLimit struct {
	count     int
	windowEnd time.Time
	lastMsg   time.Time
}

// RateLimitConfig configures rate limiting behavior
type RateLimitConfig struct {
	// MaxPerWindow is max messages per window
	MaxPerWindow int
	// WindowDuration is the window size
	WindowDuration time.Duration
	// CooldownDuration is minimum time between messages
	CooldownDuration time.Duration
}

// DefaultRateLimitConfig for lobby chat
var DefaultRateLimitConfig = RateLimitConfig{
	MaxPerWindow:     5,                      // 5 messages
	WindowDuration:   5 * time.Second,        // per 5 seconds
	CooldownDuration: 500 * time.Millisecond, // 500ms between messages
}

const (
	pruneInterval = time.Minute
	idleCutoff    = 5 * time.Minute
)

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		senders: make(map[string]*senderLimit),
		config:  cfg,
	}
}

// Allow checks if the sender may post at now
func (rl *RateLimiter) Allow(sender string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastPrune) >= pruneInterval {
		rl.prune(now)
	}

	limit, exists := rl.senders[sender]
	if !exists {
		rl.senders[sender] = &senderLimit{
			count:     1,
			windowEnd: now.Add(rl.config.WindowDuration),
			lastMsg:   now,
		}
		return true
	}

	// Check cooldown
	if now.Sub(limit.lastMsg) < rl.config.CooldownDuration {
		return false
	}

	// Check/reset window
	if now.After(limit.windowEnd) {
		limit.count = 1
		limit.windowEnd = now.Add(rl.config.WindowDuration)
		limit.lastMsg = now
		return true
	}

	// Check count
	if limit.count >= rl.config.MaxPerWindow {
		return false
	}

	limit.count++
	limit.lastMsg = now
	return true
}

// Forget drops the state kept for a sender
func (rl *RateLimiter) Forget(sender string) {
	rl.mu.Lock()
	delete(rl.senders, sender)
	rl.mu.Unlock()
}

// prune removes senders idle for longer than idleCutoff. Caller holds mu.
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-idleCutoff)
	for key, limit := range rl.senders {
		if limit.lastMsg.Before(cutoff) {
			delete(rl.senders, key)
		}
	}
	rl.lastPrune = now
}
