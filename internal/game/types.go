package game

import "time"

// Status is the lifecycle state of a match
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCountdown Status = "countdown"
	StatusRunning   Status = "running"
	StatusEnded     Status = "ended"
)

// Position is a grid cell
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the cell offset by (dx, dy)
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Direction is a movement or blast direction
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// blastDirections is the fixed order rays are walked in
var blastDirections = []Direction{DirUp, DirDown, DirLeft, DirRight}

// Delta returns the unit offset for the direction
func (d Direction) Delta() (dx, dy int, ok bool) {
	switch d {
	case DirUp:
		return 0, -1, true
	case DirDown:
		return 0, 1, true
	case DirLeft:
		return -1, 0, true
	case DirRight:
		return 1, 0, true
	default:
		return 0, 0, false
	}
}

// Tile is the kind of a map cell
type Tile string

const (
	TileEmpty        Tile = "empty"
	TileWall         Tile = "wall"
	TileDestructible Tile = "destructible-wall"
)

// Player is a participant of the running match.
// Alive == (Lives > 0 && Position != nil) once a mutation settles.
type Player struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Lives     int       `json:"lives"`
	Alive     bool      `json:"alive"`
	Position  *Position `json:"position"`
	Speed     float64   `json:"speed"`
	BombCount int       `json:"bombCount"`
	BombRange int       `json:"bombRange"`
	Avatar    string    `json:"avatar"`
	Slot      int       `json:"slot"`

	lastMoveAt  time.Time // zero until the first accepted move
	frozenUntil time.Time // set by a hit, moves before it are ignored
	respawnGen  uint64
}

// Clone returns a copy safe to hand outside the engine goroutine
func (p *Player) Clone() *Player {
	c := *p
	if p.Position != nil {
		pos := *p.Position
		c.Position = &pos
	}
	return &c
}

// Bomb is a placed bomb waiting for its fuse
type Bomb struct {
	ID       string        `json:"id"`
	OwnerID  string        `json:"ownerId"`
	Position Position      `json:"position"`
	Range    int           `json:"range"`
	PlacedAt time.Time     `json:"placedAt"`
	Fuse     time.Duration `json:"-"`
	FuseMs   int64         `json:"timer"`
}

// FuseRemaining returns how long until the bomb detonates
func (b *Bomb) FuseRemaining(now time.Time) time.Duration {
	left := b.Fuse - now.Sub(b.PlacedAt)
	if left < 0 {
		return 0
	}
	return left
}

// ExplosionTile is one affected cell, tagged for rendering
type ExplosionTile struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction"` // "center" or a Direction
	Distance  int    `json:"distance"`
}

// Explosion is the visual and damaging result of a detonation
type Explosion struct {
	ID        string          `json:"id"`
	BombID    string          `json:"bombId"`
	Tiles     []ExplosionTile `json:"tiles"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Covers reports whether the explosion includes the cell
func (e *Explosion) Covers(p Position) bool {
	for _, t := range e.Tiles {
		if t.X == p.X && t.Y == p.Y {
			return true
		}
	}
	return false
}

// PowerUpType is the kind of a collectible
type PowerUpType string

const (
	PowerUpBomb  PowerUpType = "bomb"
	PowerUpFlame PowerUpType = "flame"
	PowerUpSpeed PowerUpType = "speed"
)

// powerUpTypes is the fixed order used for uniform choice
var powerUpTypes = []PowerUpType{PowerUpBomb, PowerUpFlame, PowerUpSpeed}

// PowerUp is a collectible lying on the map
type PowerUp struct {
	ID   string      `json:"id"`
	Type PowerUpType `json:"type"`
	X    int         `json:"x"`
	Y    int         `json:"y"`
}
