package game

import "time"

// moveCooldown is the minimum gap between accepted moves at the given speed
func moveCooldown(base time.Duration, speed float64) time.Duration {
	if speed <= 0 {
		speed = 1
	}
	return time.Duration(float64(base) / speed)
}

// tryMove validates and applies a one-cell step. Rejected moves are silent.
func (m *Match) tryMove(playerID string, dir Direction) bool {
	if m.status != StatusRunning {
		return false
	}
	p := m.players.Get(playerID)
	if p == nil || !p.Alive || p.Position == nil {
		return false
	}

	now := m.now()
	if now.Before(p.frozenUntil) {
		return false
	}
	if !p.lastMoveAt.IsZero() && now.Sub(p.lastMoveAt) < moveCooldown(m.cfg.Player.MoveCooldown, p.Speed) {
		return false
	}

	dx, dy, ok := dir.Delta()
	if !ok {
		return false
	}
	from := *p.Position
	to := from.Add(dx, dy)
	if !m.gameMap.Passable(to) {
		return false
	}
	if m.cfg.Player.BlockPlayers && m.players.PlayerAt(to, p.ID) != nil {
		return false
	}

	p.Position = &to
	p.lastMoveAt = now

	if m.explosionAt(to) != nil {
		m.damage(p, "")
	}
	if p.Alive {
		m.collectPowerUp(p)
	}

	m.broadcast(&PlayerMovedMessage{Header: Header{MsgPlayerMoved}, ID: p.ID, Position: to, OldPosition: &from})

	if !p.Alive {
		m.checkGameEnd()
	}
	return true
}

func (m *Match) explosionAt(pos Position) *Explosion {
	for _, ex := range m.explosions {
		if ex.Covers(pos) {
			return ex
		}
	}
	return nil
}

// damage takes one life from p. A surviving player is frozen for the
// respawn delay and then returned to its spawn slot.
func (m *Match) damage(p *Player, bombID string) DamageOutcome {
	outcome, _ := m.players.ApplyDamage(p.ID)
	switch outcome {
	case DamageHit:
		p.respawnGen++
		delay := m.cfg.Player.RespawnDelay
		p.frozenUntil = m.now().Add(delay)
		m.broadcast(&PlayerUpdateMessage{Header: Header{MsgPlayerUpdate}, Player: p})
		m.emit(EventTypeDamage, p.ID, DamagePayload{BombID: bombID, LivesLeft: p.Lives})
		if delay <= 0 {
			m.respawn(p)
		} else {
			m.timers.Schedule(delay, Timer{Kind: TimerRespawn, EntityID: p.ID, Gen: p.respawnGen})
		}

	case DamageEliminated:
		m.broadcast(&PlayerEventMessage{Header: Header{MsgPlayerEliminated}, ID: p.ID, Nickname: p.Nickname})
		m.broadcast(&PlayerUpdateMessage{Header: Header{MsgPlayerUpdate}, Player: p})
		m.emit(EventTypeElimination, p.ID, DamagePayload{BombID: bombID})
		m.metrics.PlayerEliminated()
	}
	return outcome
}

func (m *Match) onRespawn(t Timer) {
	p := m.players.Get(t.EntityID)
	if p == nil || !p.Alive || p.respawnGen != t.Gen {
		return
	}
	m.respawn(p)
}

func (m *Match) respawn(p *Player) {
	spawn := m.players.SpawnOf(p)
	msg := &PlayerMovedMessage{Header: Header{MsgPlayerMoved}, ID: p.ID, Position: spawn}
	if p.Position != nil {
		old := *p.Position
		msg.OldPosition = &old
	}
	p.Position = &spawn
	m.broadcast(msg)
}
