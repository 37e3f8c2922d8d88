package game

import "errors"

// Client-facing errors. The text is sent verbatim in error{message}.
var (
	ErrNicknameMissing = errors.New("Nickname missing")
	ErrNicknameTaken   = errors.New("Nickname already taken")
	ErrGameFull        = errors.New("Game is full")
	ErrGameInProgress  = errors.New("Game already in progress")
	ErrClientNotFound  = errors.New("Client not found by id")
)

// Registry errors
var (
	ErrPlayerExists = errors.New("player already registered")
	ErrNotAdmitting = errors.New("match is not admitting players")
)

// ErrEngineStopped is returned by requests made after Stop
var ErrEngineStopped = errors.New("engine stopped")
