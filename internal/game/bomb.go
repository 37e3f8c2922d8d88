package game

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// placeBomb drops a bomb on the player's cell. Over-limit or occupied
// placements are ignored.
func (m *Match) placeBomb(playerID string) *Bomb {
	if m.status != StatusRunning {
		return nil
	}
	p := m.players.Get(playerID)
	if p == nil || !p.Alive || p.Position == nil {
		return nil
	}
	if m.liveBombs(p.ID) >= p.BombCount {
		return nil
	}
	pos := *p.Position
	if m.bombAt(pos) != nil {
		return nil
	}

	fuse := m.cfg.Bomb.Fuse
	b := &Bomb{
		ID:       uuid.New().String(),
		OwnerID:  p.ID,
		Position: pos,
		Range:    p.BombRange,
		PlacedAt: m.now(),
		Fuse:     fuse,
		FuseMs:   fuse.Milliseconds(),
	}
	m.bombs = append(m.bombs, b)

	m.broadcast(&BombPlacedMessage{Header: Header{MsgBombPlaced}, Bomb: b})
	m.emit(EventTypeBombPlaced, p.ID, BombPlacedPayload{BombID: b.ID, X: pos.X, Y: pos.Y, Range: b.Range})
	m.metrics.BombPlaced()

	m.timers.Schedule(fuse, Timer{Kind: TimerBombFuse, EntityID: b.ID, Gen: m.epoch})
	return b
}

func (m *Match) liveBombs(ownerID string) int {
	n := 0
	for _, b := range m.bombs {
		if b.OwnerID == ownerID {
			n++
		}
	}
	return n
}

func (m *Match) bombAt(pos Position) *Bomb {
	for _, b := range m.bombs {
		if b.Position == pos {
			return b
		}
	}
	return nil
}

func (m *Match) takeBomb(id string) *Bomb {
	for i, b := range m.bombs {
		if b.ID == id {
			m.bombs = append(m.bombs[:i], m.bombs[i+1:]...)
			return b
		}
	}
	return nil
}

func (m *Match) onBombFuse(t Timer) {
	if t.Gen != m.epoch {
		return
	}
	if m.status != StatusRunning {
		m.takeBomb(t.EntityID)
		return
	}
	m.detonate(t.EntityID)
}

// detonate turns a live bomb into an explosion, resolves its hits and
// runs a single win check afterwards
func (m *Match) detonate(bombID string) *Explosion {
	b := m.takeBomb(bombID)
	if b == nil {
		return nil
	}

	tiles, destroyed := m.blast(b)
	now := m.now()
	ex := &Explosion{
		ID:        uuid.New().String(),
		BombID:    b.ID,
		Tiles:     tiles,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.Bomb.ExplosionLifetime),
	}

	// one hit per player per detonation
	var hit []*Player
	for _, p := range m.players.Alive() {
		if p.Position != nil && ex.Covers(*p.Position) {
			hit = append(hit, p)
		}
	}
	for _, p := range hit {
		m.damage(p, b.ID)
	}

	m.explosions = append(m.explosions, ex)
	m.broadcast(&ExplosionMessage{
		Header:     Header{MsgExplosion},
		BombID:     b.ID,
		Explosion:  ex,
		UpdatedMap: m.gameMap,
		Players:    m.players.List(),
	})

	log.WithFields(log.Fields{
		"bomb":      b.ID,
		"tiles":     len(tiles),
		"destroyed": destroyed,
		"hits":      len(hit),
	}).Debug("💥 Bomb detonated")
	m.emit(EventTypeExplosion, b.OwnerID, ExplosionPayload{BombID: b.ID, Tiles: len(tiles), Destroyed: destroyed, Hits: len(hit)})
	m.metrics.Detonation(len(tiles), len(hit))

	m.timers.Schedule(m.cfg.Bomb.ExplosionLifetime, Timer{Kind: TimerExplosionExpire, EntityID: ex.ID, Gen: m.epoch})
	m.checkGameEnd()
	return ex
}

// blast walks the four rays from the bomb. Walls stop a ray before the
// wall; a destructible wall is included, cleared, and stops the ray.
func (m *Match) blast(b *Bomb) ([]ExplosionTile, int) {
	tiles := []ExplosionTile{{X: b.Position.X, Y: b.Position.Y, Direction: "center"}}
	destroyed := 0

	for _, dir := range blastDirections {
		dx, dy, _ := dir.Delta()
		for d := 1; d <= b.Range; d++ {
			cell := b.Position.Add(dx*d, dy*d)
			tile := m.gameMap.At(cell)
			if tile == TileWall {
				break
			}
			tiles = append(tiles, ExplosionTile{X: cell.X, Y: cell.Y, Direction: string(dir), Distance: d})
			if tile == TileDestructible {
				m.gameMap.Set(cell, TileEmpty)
				destroyed++
				m.maybeSpawnPowerUp(cell)
				break
			}
		}
	}
	return tiles, destroyed
}

func (m *Match) onExplosionExpire(t Timer) {
	if t.Gen != m.epoch {
		return
	}
	for i, ex := range m.explosions {
		if ex.ID == t.EntityID {
			m.explosions = append(m.explosions[:i], m.explosions[i+1:]...)
			return
		}
	}
}
