package game

import (
	"math/rand"
)

// GameMap is the tile grid plus the power-ups lying on it
type GameMap struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Tiles    [][]Tile  `json:"tiles"` // row-major: Tiles[y][x]
	PowerUps []PowerUp `json:"powerUps"`
}

// InBounds reports whether the cell lies on the grid
func (m *GameMap) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.Width && p.Y < m.Height
}

// At returns the tile at p. Out-of-bounds cells read as wall.
func (m *GameMap) At(p Position) Tile {
	if !m.InBounds(p) {
		return TileWall
	}
	return m.Tiles[p.Y][p.X]
}

// Set overwrites the tile at p
func (m *GameMap) Set(p Position, t Tile) {
	if m.InBounds(p) {
		m.Tiles[p.Y][p.X] = t
	}
}

// Passable reports whether a player may stand on p
func (m *GameMap) Passable(p Position) bool {
	return m.InBounds(p) && m.At(p) == TileEmpty
}

// PowerUpAt returns the index of the power-up on p, or -1
func (m *GameMap) PowerUpAt(p Position) int {
	for i, pu := range m.PowerUps {
		if pu.X == p.X && pu.Y == p.Y {
			return i
		}
	}
	return -1
}

// Clone deep-copies the map for use outside the engine goroutine
func (m *GameMap) Clone() *GameMap {
	if m == nil {
		return nil
	}
	c := &GameMap{Width: m.Width, Height: m.Height}
	c.Tiles = make([][]Tile, len(m.Tiles))
	for y, row := range m.Tiles {
		c.Tiles[y] = append([]Tile(nil), row...)
	}
	c.PowerUps = append(make([]PowerUp, 0, len(m.PowerUps)), m.PowerUps...)
	return c
}

// GenerateMap builds a fresh procedural grid.
//
// Layout rules:
//   - Border is all wall
//   - Wall at every cell where both row and column are even (pillars)
//   - The 3x3 block at each corner stays empty so every spawn has room to move
//   - Other free cells become destructible walls with the given density
func GenerateMap(width, height int, density float64, rng *rand.Rand) *GameMap {
	m := &GameMap{
		Width:    width,
		Height:   height,
		Tiles:    make([][]Tile, height),
		PowerUps: []PowerUp{},
	}

	for y := 0; y < height; y++ {
		m.Tiles[y] = make([]Tile, width)
		for x := 0; x < width; x++ {
			switch {
			case x == 0 || y == 0 || x == width-1 || y == height-1:
				m.Tiles[y][x] = TileWall
			case x%2 == 0 && y%2 == 0:
				m.Tiles[y][x] = TileWall
			case inSpawnCorner(x, y, width, height):
				m.Tiles[y][x] = TileEmpty
			case rng.Float64() < density:
				m.Tiles[y][x] = TileDestructible
			default:
				m.Tiles[y][x] = TileEmpty
			}
		}
	}

	return m
}

// inSpawnCorner reports whether (x, y) is within two cells of a corner
func inSpawnCorner(x, y, width, height int) bool {
	nearLeft, nearRight := x <= 2, x >= width-3
	nearTop, nearBottom := y <= 2, y >= height-3
	return (nearLeft || nearRight) && (nearTop || nearBottom)
}

// SpawnSlots returns the four corner spawn cells in join order:
// top-left, top-right, bottom-left, bottom-right.
func SpawnSlots(width, height int) []Position {
	return []Position{
		{X: 1, Y: 1},
		{X: width - 2, Y: 1},
		{X: 1, Y: height - 2},
		{X: width - 2, Y: height - 2},
	}
}
