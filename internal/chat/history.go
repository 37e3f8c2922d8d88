package chat

// History keeps the most recent chat lines, oldest first
type History struct {
	messages []Message
	limit    int
}

// NewHistory creates a history bounded to limit messages
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 50
	}
	return &History{
		messages: make([]Message, 0, limit),
		limit:    limit,
	}
}

// Append stores a message, evicting the oldest when full
func (h *History) Append(msg Message) {
	if len(h.messages) == h.limit {
		copy(h.messages, h.messages[1:])
		h.messages = h.messages[:h.limit-1]
	}
	h.messages = append(h.messages, msg)
}

// Messages returns a copy of the stored lines
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of stored lines
func (h *History) Len() int {
	return len(h.messages)
}

// Clear drops every line
func (h *History) Clear() {
	h.messages = h.messages[:0]
}
