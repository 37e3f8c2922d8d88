package game

import "time"

// Metrics receives match counters. The api package backs it with Prometheus.
type Metrics interface {
	StatusChanged(status Status)
	LobbySize(n int)
	MatchStarted(players int)
	MatchEnded(hasWinner bool, duration time.Duration)
	BombPlaced()
	Detonation(tiles, hits int)
	PlayerEliminated()
	PowerUpSpawned(t PowerUpType)
	PowerUpCollected(t PowerUpType)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) StatusChanged(Status)           {}
func (NopMetrics) LobbySize(int)                  {}
func (NopMetrics) MatchStarted(int)               {}
func (NopMetrics) MatchEnded(bool, time.Duration) {}
func (NopMetrics) BombPlaced()                    {}
func (NopMetrics) Detonation(int, int)            {}
func (NopMetrics) PlayerEliminated()              {}
func (NopMetrics) PowerUpSpawned(PowerUpType)     {}
func (NopMetrics) PowerUpCollected(PowerUpType)   {}
