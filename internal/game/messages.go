package game

import "github.com/fannielf/bomberman-dom-git/internal/chat"

// Outbound message types
const (
	MsgPlayerJoined      = "playerJoined"
	MsgPlayerExists      = "playerExists"
	MsgError             = "error"
	MsgUpdatePlayerCount = "updatePlayerCount"
	MsgReadyTimer        = "readyTimer"
	MsgWaitingTimer      = "waitingTimer"
	MsgGameState         = "gameState"
	MsgGameStarted       = "gameStarted"
	MsgGameUpdate        = "gameUpdate"
	MsgPlayerMoved       = "playerMoved"
	MsgBombPlaced        = "bombPlaced"
	MsgExplosion         = "explosion"
	MsgPlayerUpdate      = "playerUpdate"
	MsgPlayerEliminated  = "playerEliminated"
	MsgDeactivatePlayer  = "deActivatePlayer"
	MsgPowerUpPickup     = "powerUpPickup"
	MsgGameEnded         = "gameEnded"
	MsgGameReset         = "gameReset"
	MsgLobbyReset        = "lobbyReset"
	MsgChat              = "chat"
)

// Message is an outbound event. Every message serializes as {type, ...fields}.
type Message interface {
	MessageType() string
}

// Header carries the envelope type and is embedded in every message
type Header struct {
	Type string `json:"type"`
}

// MessageType implements Message
func (h Header) MessageType() string { return h.Type }

// Transport delivers messages to connections. Implementations must not
// retain msg after Send returns and must never block.
type Transport interface {
	Send(connID string, msg Message)
}

type PlayerJoinedMessage struct {
	Header
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type ErrorMessage struct {
	Header
	Message  string `json:"message"`
	GameFull bool   `json:"gameFull,omitempty"`
}

// NewErrorMessage builds an error reply
func NewErrorMessage(text string) *ErrorMessage {
	return &ErrorMessage{Header: Header{MsgError}, Message: text}
}

type LobbyMessage struct {
	Header
	Count       int            `json:"count"`
	Players     []string       `json:"players"`
	GameFull    bool           `json:"gameFull"`
	ChatHistory []chat.Message `json:"chatHistory"`
}

type ReadyTimerMessage struct {
	Header
	Countdown int `json:"countdown"`
}

type WaitingTimerMessage struct {
	Header
	TimeLeft int `json:"timeLeft"`
}

type GameStateMessage struct {
	Header
	Status Status `json:"status"`
}

type GameStartedMessage struct {
	Header
	Map         *GameMap       `json:"map"`
	Players     []*Player      `json:"players"`
	ChatHistory []chat.Message `json:"chatHistory"`
}

// GameView is the full running-match view resent on page reload
type GameView struct {
	Status     Status       `json:"status"`
	Map        *GameMap     `json:"map"`
	Bombs      []*Bomb      `json:"bombs"`
	Explosions []*Explosion `json:"explosions"`
}

type GameUpdateMessage struct {
	Header
	GameState   GameView       `json:"gameState"`
	Players     []*Player      `json:"players"`
	ChatHistory []chat.Message `json:"chatHistory"`
}

type PlayerMovedMessage struct {
	Header
	ID          string    `json:"id"`
	Position    Position  `json:"position"`
	OldPosition *Position `json:"oldPosition"`
}

type BombPlacedMessage struct {
	Header
	Bomb *Bomb `json:"bomb"`
}

type ExplosionMessage struct {
	Header
	BombID     string     `json:"bombId"`
	Explosion  *Explosion `json:"explosion"`
	UpdatedMap *GameMap   `json:"updatedMap"`
	Players    []*Player  `json:"players"`
}

type PlayerUpdateMessage struct {
	Header
	Player *Player `json:"player"`
}

// PlayerEventMessage is used for playerEliminated and deActivatePlayer
type PlayerEventMessage struct {
	Header
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type PowerUpPickupMessage struct {
	Header
	PlayerID    string    `json:"playerId"`
	PowerUpID   string    `json:"powerUpId"`
	NewPowerUps []PowerUp `json:"newPowerUps"`
}

type GameEndedMessage struct {
	Header
	Winner   *string `json:"winner"` // nil when no one survived
	WinnerID string  `json:"winnerId,omitempty"`
}

type ChatMessage struct {
	Header
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
}
