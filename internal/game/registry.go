package game

import (
	"fmt"

	"github.com/fannielf/bomberman-dom-git/internal/config"
)

// DamageOutcome describes what a hit did to a player
type DamageOutcome int

const (
	DamageNone       DamageOutcome = iota // player missing or already out
	DamageHit                             // lost a life, still in the match
	DamageEliminated                      // lost the last life
)

// Registry tracks the players of the current match in join order
type Registry struct {
	players  map[string]*Player
	order    []string
	slots    []Position
	capacity int
	defaults config.PlayerConfig
}

// NewRegistry creates an empty registry with the given spawn slots
func NewRegistry(slots []Position, capacity int, defaults config.PlayerConfig) *Registry {
	if capacity > len(slots) {
		capacity = len(slots)
	}
	return &Registry{
		players:  make(map[string]*Player),
		slots:    slots,
		capacity: capacity,
		defaults: defaults,
	}
}

// Admit promotes a lobby identity into a player at the next unused spawn slot.
// Players are only admitted while the match is counting down.
func (r *Registry) Admit(id, nickname string, status Status) (*Player, error) {
	if status != StatusCountdown {
		return nil, ErrNotAdmitting
	}
	if _, exists := r.players[id]; exists {
		return nil, ErrPlayerExists
	}
	if len(r.players) >= r.capacity {
		return nil, ErrGameFull
	}

	slot := r.freeSlot()
	spawn := r.slots[slot]
	p := &Player{
		ID:        id,
		Nickname:  nickname,
		Lives:     r.defaults.Lives,
		Alive:     true,
		Position:  &spawn,
		Speed:     r.defaults.Speed,
		BombCount: r.defaults.BombCount,
		BombRange: r.defaults.BombRange,
		Avatar:    fmt.Sprintf("player%d", slot+1),
		Slot:      slot,
	}

	r.players[id] = p
	r.order = append(r.order, id)
	return p, nil
}

// freeSlot returns the lowest slot index not held by a player
func (r *Registry) freeSlot() int {
	used := make(map[int]bool, len(r.players))
	for _, p := range r.players {
		used[p.Slot] = true
	}
	for i := range r.slots {
		if !used[i] {
			return i
		}
	}
	return 0
}

// Get returns a player by id (may be nil)
func (r *Registry) Get(id string) *Player {
	return r.players[id]
}

// Remove deletes the player record. Returns false if it was not present.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Deactivate marks the player out of play but keeps the record for spectating.
// Returns the player if it was alive before the call.
func (r *Registry) Deactivate(id string) *Player {
	p := r.players[id]
	if p == nil || !p.Alive {
		return nil
	}
	p.Alive = false
	p.Position = nil
	return p
}

// ApplyDamage takes one life from an alive player
func (r *Registry) ApplyDamage(id string) (DamageOutcome, *Player) {
	p := r.players[id]
	if p == nil || !p.Alive {
		return DamageNone, p
	}

	p.Lives--
	if p.Lives <= 0 {
		p.Lives = 0
		r.Deactivate(id)
		return DamageEliminated, p
	}
	return DamageHit, p
}

// SpawnOf returns the start cell of the player's slot
func (r *Registry) SpawnOf(p *Player) Position {
	return r.slots[p.Slot]
}

// PlayerAt returns an alive player standing on pos, ignoring exceptID
func (r *Registry) PlayerAt(pos Position, exceptID string) *Player {
	for _, id := range r.order {
		p := r.players[id]
		if id == exceptID || !p.Alive || p.Position == nil {
			continue
		}
		if *p.Position == pos {
			return p
		}
	}
	return nil
}

// List returns players in join order
func (r *Registry) List() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// Alive returns alive players in join order
func (r *Registry) Alive() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// AliveCount returns the number of alive players
func (r *Registry) AliveCount() int {
	n := 0
	for _, p := range r.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// Len returns the number of player records
func (r *Registry) Len() int {
	return len(r.players)
}

// Clear drops every player
func (r *Registry) Clear() {
	r.players = make(map[string]*Player)
	r.order = nil
}

// Snapshot returns cloned players in join order
func (r *Registry) Snapshot() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id].Clone())
	}
	return out
}
