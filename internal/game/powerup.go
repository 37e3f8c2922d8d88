package game

import (
	"math"
	"math/rand"

	"github.com/fannielf/bomberman-dom-git/internal/config"
	"github.com/google/uuid"
)

// PowerUpPool is the finite per-match supply of power-ups. Stock is taken
// when a power-up spawns, not when it is picked up.
type PowerUpPool struct {
	remaining map[PowerUpType]int
	spawned   map[PowerUpType]int
}

// NewPowerUpPool creates a full pool
func NewPowerUpPool(cfg config.BombConfig) *PowerUpPool {
	return &PowerUpPool{
		remaining: map[PowerUpType]int{
			PowerUpBomb:  cfg.PoolBomb,
			PowerUpFlame: cfg.PoolFlame,
			PowerUpSpeed: cfg.PoolSpeed,
		},
		spawned: make(map[PowerUpType]int),
	}
}

// Remaining returns the stock left for a type
func (p *PowerUpPool) Remaining(t PowerUpType) int {
	return p.remaining[t]
}

// Spawned returns how many of a type were drawn this match
func (p *PowerUpPool) Spawned(t PowerUpType) int {
	return p.spawned[t]
}

// Available returns the types with stock, in fixed order
func (p *PowerUpPool) Available() []PowerUpType {
	var out []PowerUpType
	for _, t := range powerUpTypes {
		if p.remaining[t] > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Draw takes one power-up chosen uniformly among types with stock
func (p *PowerUpPool) Draw(rng *rand.Rand) (PowerUpType, bool) {
	avail := p.Available()
	if len(avail) == 0 {
		return "", false
	}
	t := avail[rng.Intn(len(avail))]
	p.remaining[t]--
	p.spawned[t]++
	return t, true
}

// maybeSpawnPowerUp rolls the drop chance for a destroyed wall
func (m *Match) maybeSpawnPowerUp(cell Position) {
	if m.pool == nil || m.rng.Float64() >= m.cfg.Bomb.PowerUpChance {
		return
	}
	t, ok := m.pool.Draw(m.rng)
	if !ok {
		return
	}
	m.gameMap.PowerUps = append(m.gameMap.PowerUps, PowerUp{
		ID:   uuid.New().String(),
		Type: t,
		X:    cell.X,
		Y:    cell.Y,
	})
	m.metrics.PowerUpSpawned(t)
}

// collectPowerUp picks up whatever lies under p
func (m *Match) collectPowerUp(p *Player) {
	i := m.gameMap.PowerUpAt(*p.Position)
	if i < 0 {
		return
	}
	pu := m.gameMap.PowerUps[i]
	m.gameMap.PowerUps = append(m.gameMap.PowerUps[:i], m.gameMap.PowerUps[i+1:]...)

	applyPowerUp(p, pu.Type, m.cfg.Bomb.SpeedMultiplier)

	m.broadcast(&PowerUpPickupMessage{
		Header:      Header{MsgPowerUpPickup},
		PlayerID:    p.ID,
		PowerUpID:   pu.ID,
		NewPowerUps: m.gameMap.PowerUps,
	})
	m.broadcast(&PlayerUpdateMessage{Header: Header{MsgPlayerUpdate}, Player: p})
	m.emit(EventTypePowerUpPickup, p.ID, PowerUpPayload{PowerUpID: pu.ID, Type: pu.Type})
	m.metrics.PowerUpCollected(pu.Type)
}

// applyPowerUp permanently upgrades the player
func applyPowerUp(p *Player, t PowerUpType, speedMultiplier float64) {
	switch t {
	case PowerUpBomb:
		p.BombCount++
	case PowerUpFlame:
		p.BombRange++
	case PowerUpSpeed:
		p.Speed = math.Round(p.Speed*speedMultiplier*100) / 100
	}
}
