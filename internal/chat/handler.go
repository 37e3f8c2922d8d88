package chat

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Handler validates, rate limits and records lobby chat
type Handler struct {
	history     *History
	rateLimiter *RateLimiter
	maxLength   int
}

// NewHandler creates a chat handler with the given history size and line length
func NewHandler(historySize, maxLength int) *Handler {
	return &Handler{
		history:     NewHistory(historySize),
		rateLimiter: NewRateLimiter(DefaultRateLimitConfig),
		maxLength:   maxLength,
	}
}

// Post records a message from senderID. Returns false when the text is empty
// or the sender is rate limited; nothing is recorded in that case.
func (h *Handler) Post(senderID, nickname, text string, now time.Time) (Message, bool) {
	text, ok := Normalize(text, h.maxLength)
	if !ok {
		return Message{}, false
	}

	if !h.rateLimiter.Allow(senderID, now) {
		log.Printf("🚫 Chat rate limited: %s", nickname)
		return Message{}, false
	}

	msg := Message{Nickname: nickname, Message: text, SentAt: now}
	h.history.Append(msg)
	return msg, true
}

// History returns the recorded lines, oldest first
func (h *Handler) History() []Message {
	return h.history.Messages()
}

// Forget drops rate limit state for a sender that left
func (h *Handler) Forget(senderID string) {
	h.rateLimiter.Forget(senderID)
}

// Reset clears the history for a new lobby cycle
func (h *Handler) Reset() {
	h.history.Clear()
}
