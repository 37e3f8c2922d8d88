package game

import (
	"encoding/json"
	"time"
)

// EventType enum for audit log classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeMatchStart
	EventTypePlayerJoin
	EventTypePlayerLeave
	EventTypeBombPlaced
	EventTypeExplosion
	EventTypeDamage
	EventTypeElimination
	EventTypePowerUpPickup
	EventTypeMatchEnd
	EventTypeReset
)

// EventVersion for backwards compatibility of the log format
const EventVersion uint8 = 1

// Event is one audit log record
type Event struct {
	Version   uint8           `json:"version"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic per log
	MatchNum  uint64          `json:"matchNum"`  // Match this occurred in
	PlayerID  string          `json:"playerId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeMatchStart:
		return "match_start"
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypePlayerLeave:
		return "player_leave"
	case EventTypeBombPlaced:
		return "bomb_placed"
	case EventTypeExplosion:
		return "explosion"
	case EventTypeDamage:
		return "damage"
	case EventTypeElimination:
		return "elimination"
	case EventTypePowerUpPickup:
		return "powerup_pickup"
	case EventTypeMatchEnd:
		return "match_end"
	case EventTypeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

type MatchStartPayload struct {
	Players []string `json:"players"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
}

type PlayerJoinPayload struct {
	Nickname string `json:"nickname"`
	Lobby    int    `json:"lobby"`
}

type PlayerLeavePayload struct {
	Nickname string `json:"nickname"`
	Reason   string `json:"reason"` // "leave", "disconnect"
}

type BombPlacedPayload struct {
	BombID string `json:"bombId"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Range  int    `json:"range"`
}

type ExplosionPayload struct {
	BombID    string `json:"bombId"`
	Tiles     int    `json:"tiles"`
	Destroyed int    `json:"destroyed"`
	Hits      int    `json:"hits"`
}

type DamagePayload struct {
	BombID    string `json:"bombId,omitempty"`
	LivesLeft int    `json:"livesLeft"`
}

type PowerUpPayload struct {
	PowerUpID string      `json:"powerUpId"`
	Type      PowerUpType `json:"type"`
}

type MatchEndPayload struct {
	Winner   string `json:"winner,omitempty"`
	Duration int64  `json:"durationMs"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, matchNum uint64, playerID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType.String(),
		Timestamp: time.Now().UnixNano(),
		MatchNum:  matchNum,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}

// EventSink receives audit events from the match
type EventSink interface {
	EmitSimple(eventType EventType, matchNum uint64, playerID string, payload interface{}) bool
}
