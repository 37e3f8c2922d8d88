package chat

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Message is one line of lobby chat
type Message struct {
	Nickname string    `json:"nickname"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
}

// Normalize trims the text and caps it at maxLen runes.
// Returns false if nothing is left to send.
func Normalize(text string, maxLen int) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:maxLen]))
	}
	return text, true
}
