package chat

import (
	"strings"
	"testing"
	"time"
)

// TestNormalize verifies trimming, empty rejection and truncation
func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		max    int
		want   string
		wantOK bool
	}{
		{"plain", "hello", 200, "hello", true},
		{"trimmed", "  hi there \n", 200, "hi there", true},
		{"blank", "   ", 200, "", false},
		{"truncated", "abcdef", 3, "abc", true},
		{"multibyte", "ääää", 2, "ää", true},
		{"no limit", strings.Repeat("x", 500), 0, strings.Repeat("x", 500), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in, tt.max)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Normalize(%q, %d) = %q, %v; want %q, %v", tt.in, tt.max, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// TestHistoryBounded verifies the oldest lines are evicted first
func TestHistoryBounded(t *testing.T) {
	h := NewHistory(3)
	for _, text := range []string{"a", "b", "c", "d"} {
		h.Append(Message{Nickname: "n", Message: text})
	}

	got := h.Messages()
	if len(got) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(got))
	}
	if got[0].Message != "b" || got[2].Message != "d" {
		t.Errorf("Unexpected order: %+v", got)
	}

	// Returned slice is a copy
	got[0].Message = "mutated"
	if h.Messages()[0].Message != "b" {
		t.Error("Messages should return a copy")
	}

	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Expected empty history after Clear, got %d", h.Len())
	}
}

// TestRateLimiter verifies cooldown and window limits
func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		MaxPerWindow:     2,
		WindowDuration:   time.Second,
		CooldownDuration: 100 * time.Millisecond,
	})
	start := time.Unix(1000, 0)

	if !rl.Allow("p1", start) {
		t.Fatal("First message should pass")
	}
	if rl.Allow("p1", start.Add(50*time.Millisecond)) {
		t.Error("Message inside cooldown should be rejected")
	}
	if !rl.Allow("p1", start.Add(200*time.Millisecond)) {
		t.Error("Second message in window should pass")
	}
	if rl.Allow("p1", start.Add(400*time.Millisecond)) {
		t.Error("Third message in window should be rejected")
	}
	if !rl.Allow("p2", start.Add(400*time.Millisecond)) {
		t.Error("Other senders are limited independently")
	}
	if !rl.Allow("p1", start.Add(1500*time.Millisecond)) {
		t.Error("New window should reset the count")
	}
}

// TestHandlerPost verifies messages are recorded only when accepted
func TestHandlerPost(t *testing.T) {
	h := NewHandler(10, 5)
	now := time.Unix(2000, 0)

	msg, ok := h.Post("id1", "alice", "  hello world ", now)
	if !ok {
		t.Fatal("Expected message to be accepted")
	}
	if msg.Message != "hello" || msg.Nickname != "alice" {
		t.Errorf("Unexpected message %+v", msg)
	}

	if _, ok := h.Post("id1", "alice", "again", now); ok {
		t.Error("Flooded message should be rejected")
	}
	if _, ok := h.Post("id2", "bob", "   ", now); ok {
		t.Error("Blank message should be rejected")
	}

	if n := len(h.History()); n != 1 {
		t.Errorf("Expected 1 recorded message, got %d", n)
	}

	h.Reset()
	if n := len(h.History()); n != 0 {
		t.Errorf("Expected empty history after Reset, got %d", n)
	}
}
