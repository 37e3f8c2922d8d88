package config

import (
	"testing"
	"time"
)

// TestDefaultGame verifies the stock rules of a match
func TestDefaultGame(t *testing.T) {
	cfg := DefaultGame()

	if cfg.MapWidth != 15 || cfg.MapHeight != 13 {
		t.Errorf("Expected 15x13 map, got %dx%d", cfg.MapWidth, cfg.MapHeight)
	}
	if cfg.MaxPlayers != 4 || cfg.MinPlayers != 2 {
		t.Errorf("Expected lobby 2..4, got %d..%d", cfg.MinPlayers, cfg.MaxPlayers)
	}
	if cfg.CountdownSeconds != 10 {
		t.Errorf("Expected 10s countdown, got %d", cfg.CountdownSeconds)
	}
	if cfg.Player.Lives != 3 {
		t.Errorf("Expected 3 lives, got %d", cfg.Player.Lives)
	}
	if cfg.Player.BlockPlayers {
		t.Error("Player blocking should be off by default")
	}
	if cfg.Bomb.Fuse != 3*time.Second {
		t.Errorf("Expected 3s fuse, got %v", cfg.Bomb.Fuse)
	}
	if cfg.Bomb.PoolBomb != 4 || cfg.Bomb.PoolFlame != 4 || cfg.Bomb.PoolSpeed != 2 {
		t.Errorf("Unexpected power-up pool: %+v", cfg.Bomb)
	}
}

// TestGameFromEnv verifies environment overrides and rejection of bad values
func TestGameFromEnv(t *testing.T) {
	t.Setenv("COUNTDOWN_SECONDS", "3")
	t.Setenv("MOVE_COOLDOWN_MS", "100")
	t.Setenv("BLOCK_PLAYERS", "true")
	t.Setenv("POWERUP_CHANCE", "1.5") // out of range, ignored
	t.Setenv("MAX_PLAYERS", "9")      // above capacity, ignored
	t.Setenv("POOL_SPEED", "0")

	cfg := GameFromEnv()

	if cfg.CountdownSeconds != 3 {
		t.Errorf("Expected countdown 3, got %d", cfg.CountdownSeconds)
	}
	if cfg.Player.MoveCooldown != 100*time.Millisecond {
		t.Errorf("Expected 100ms cooldown, got %v", cfg.Player.MoveCooldown)
	}
	if !cfg.Player.BlockPlayers {
		t.Error("Expected BLOCK_PLAYERS override")
	}
	if cfg.Bomb.PowerUpChance != 0.3 {
		t.Errorf("Out-of-range chance should be ignored, got %v", cfg.Bomb.PowerUpChance)
	}
	if cfg.MaxPlayers != 4 {
		t.Errorf("Out-of-range capacity should be ignored, got %d", cfg.MaxPlayers)
	}
	if cfg.Bomb.PoolSpeed != 0 {
		t.Errorf("Expected empty speed pool, got %d", cfg.Bomb.PoolSpeed)
	}
}

// TestGameFromEnvMapAndQuorum verifies even map sizes are ignored and the
// quorum never exceeds the lobby capacity
func TestGameFromEnvMapAndQuorum(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantWidth  int
		wantHeight int
		wantMin    int
		wantMax    int
	}{
		{
			name:       "odd sizes accepted",
			env:        map[string]string{"MAP_WIDTH": "21", "MAP_HEIGHT": "9"},
			wantWidth:  21,
			wantHeight: 9,
			wantMin:    2,
			wantMax:    4,
		},
		{
			name:       "even sizes ignored",
			env:        map[string]string{"MAP_WIDTH": "16", "MAP_HEIGHT": "12"},
			wantWidth:  15,
			wantHeight: 13,
			wantMin:    2,
			wantMax:    4,
		},
		{
			name:       "quorum above capacity clamped",
			env:        map[string]string{"MIN_PLAYERS": "5", "MAX_PLAYERS": "4"},
			wantWidth:  15,
			wantHeight: 13,
			wantMin:    4,
			wantMax:    4,
		},
		{
			name:       "default quorum follows smaller capacity",
			env:        map[string]string{"MAX_PLAYERS": "1"},
			wantWidth:  15,
			wantHeight: 13,
			wantMin:    1,
			wantMax:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := GameFromEnv()
			if cfg.MapWidth != tt.wantWidth || cfg.MapHeight != tt.wantHeight {
				t.Errorf("Expected %dx%d map, got %dx%d", tt.wantWidth, tt.wantHeight, cfg.MapWidth, cfg.MapHeight)
			}
			if cfg.MinPlayers != tt.wantMin || cfg.MaxPlayers != tt.wantMax {
				t.Errorf("Expected players %d-%d, got %d-%d", tt.wantMin, tt.wantMax, cfg.MinPlayers, cfg.MaxPlayers)
			}
		})
	}
}

// TestServerFromEnv verifies port and origin parsing
func TestServerFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := ServerFromEnv()

	if cfg.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("Expected 2 origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origin %q", cfg.AllowedOrigins[1])
	}
}

// TestObservabilityFromEnv verifies an explicitly empty event log path disables the log
func TestObservabilityFromEnv(t *testing.T) {
	t.Setenv("EVENT_LOG_PATH", "")
	t.Setenv("DISABLE_DEBUG_SERVER", "true")
	t.Setenv("DEBUG_USER", "ops")
	t.Setenv("DEBUG_PASSWORD", "secret")

	cfg := ObservabilityFromEnv()

	if cfg.EventLogPath != "" {
		t.Errorf("Expected empty event log path, got %q", cfg.EventLogPath)
	}
	if cfg.DebugServer {
		t.Error("Expected debug server disabled")
	}
	if cfg.DebugUser != "ops" || cfg.DebugPassword != "secret" {
		t.Errorf("Expected debug credentials, got %q/%q", cfg.DebugUser, cfg.DebugPassword)
	}
}
