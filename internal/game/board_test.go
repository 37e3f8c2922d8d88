package game

import (
	"math/rand"
	"testing"
)

// TestGenerateMapLayout verifies border, pillars and empty spawn corners
func TestGenerateMapLayout(t *testing.T) {
	m := GenerateMap(15, 13, 1.0, rand.New(rand.NewSource(7)))

	if m.Width != 15 || m.Height != 13 || len(m.Tiles) != 13 || len(m.Tiles[0]) != 15 {
		t.Fatalf("Unexpected dimensions %dx%d", m.Width, m.Height)
	}

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			tile := m.Tiles[y][x]
			border := x == 0 || y == 0 || x == m.Width-1 || y == m.Height-1
			pillar := x%2 == 0 && y%2 == 0
			switch {
			case border || pillar:
				if tile != TileWall {
					t.Errorf("(%d,%d) should be wall, got %s", x, y, tile)
				}
			case inSpawnCorner(x, y, m.Width, m.Height):
				if tile != TileEmpty {
					t.Errorf("(%d,%d) spawn corner should be empty, got %s", x, y, tile)
				}
			default:
				if tile != TileDestructible {
					t.Errorf("(%d,%d) should be destructible at density 1, got %s", x, y, tile)
				}
			}
		}
	}

	for _, slot := range SpawnSlots(m.Width, m.Height) {
		if !m.Passable(slot) {
			t.Errorf("Spawn slot %+v is not passable", slot)
		}
		for _, dir := range blastDirections {
			dx, dy, _ := dir.Delta()
			next := slot.Add(dx, dy)
			if m.At(next) == TileDestructible {
				t.Errorf("Spawn slot %+v is boxed in at %+v", slot, next)
			}
		}
	}
}

// TestGenerateMapDeterministic verifies the same seed gives the same map
func TestGenerateMapDeterministic(t *testing.T) {
	a := GenerateMap(15, 13, 0.3, rand.New(rand.NewSource(42)))
	b := GenerateMap(15, 13, 0.3, rand.New(rand.NewSource(42)))

	for y := range a.Tiles {
		for x := range a.Tiles[y] {
			if a.Tiles[y][x] != b.Tiles[y][x] {
				t.Fatalf("Maps differ at (%d,%d)", x, y)
			}
		}
	}
}

// TestGameMapAccessors verifies bounds handling and cloning
func TestGameMapAccessors(t *testing.T) {
	m := GenerateMap(7, 7, 0, rand.New(rand.NewSource(1)))

	tests := []struct {
		name     string
		pos      Position
		tile     Tile
		passable bool
	}{
		{"inside empty", Position{X: 1, Y: 1}, TileEmpty, true},
		{"border", Position{X: 0, Y: 1}, TileWall, false},
		{"pillar", Position{X: 2, Y: 2}, TileWall, false},
		{"negative", Position{X: -1, Y: 3}, TileWall, false},
		{"past edge", Position{X: 7, Y: 3}, TileWall, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.At(tt.pos); got != tt.tile {
				t.Errorf("At(%+v) = %s, want %s", tt.pos, got, tt.tile)
			}
			if got := m.Passable(tt.pos); got != tt.passable {
				t.Errorf("Passable(%+v) = %v, want %v", tt.pos, got, tt.passable)
			}
		})
	}

	m.PowerUps = append(m.PowerUps, PowerUp{ID: "p1", Type: PowerUpBomb, X: 3, Y: 1})
	clone := m.Clone()
	clone.Set(Position{X: 1, Y: 1}, TileDestructible)
	clone.PowerUps[0].X = 5

	if m.At(Position{X: 1, Y: 1}) != TileEmpty {
		t.Error("Clone shares tiles with the original")
	}
	if m.PowerUpAt(Position{X: 3, Y: 1}) != 0 {
		t.Error("Clone shares power-ups with the original")
	}
	if m.PowerUpAt(Position{X: 4, Y: 4}) != -1 {
		t.Error("Expected -1 for a cell without power-up")
	}
}

// TestSpawnSlots verifies the corner order for a 15x13 map
func TestSpawnSlots(t *testing.T) {
	want := []Position{{X: 1, Y: 1}, {X: 13, Y: 1}, {X: 1, Y: 11}, {X: 13, Y: 11}}
	got := SpawnSlots(15, 13)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
