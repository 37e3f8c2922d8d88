// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for game rules, timings and server settings.
//
// Every value has a default and can be overridden from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// GAME / LIFECYCLE CONFIGURATION
// =============================================================================

// GameConfig holds map dimensions and lobby/lifecycle timings.
type GameConfig struct {
	MapWidth            int     // Grid width in tiles (must be odd)
	MapHeight           int     // Grid height in tiles (must be odd)
	DestructibleDensity float64 // Chance a free cell becomes a destructible wall

	MaxPlayers       int           // Lobby capacity, countdown starts immediately when reached
	MinPlayers       int           // Quorum for the grace-window countdown
	GraceSeconds     int           // Seconds without new joins before a quorum lobby starts
	CountdownSeconds int           // Pre-match countdown length
	StartAckTimeout  time.Duration // How long to wait for every client's gameStart ack
	ResetDelay       time.Duration // Delay between gameEnded and the lobby reset
	ReconnectGrace   time.Duration // How long a dropped connection may come back via pageReload

	Seed int64 // RNG seed for map generation and power-ups (0 = time based)

	Player PlayerConfig
	Bomb   BombConfig
	Chat   ChatConfig
}

// PlayerConfig holds per-player defaults and movement tuning.
type PlayerConfig struct {
	Lives        int
	Speed        float64
	BombCount    int
	BombRange    int
	MoveCooldown time.Duration // Base cooldown, divided by the player's speed
	RespawnDelay time.Duration
	BlockPlayers bool // Whether players block each other's movement
}

// BombConfig holds bomb, explosion and power-up tuning.
type BombConfig struct {
	Fuse              time.Duration
	ExplosionLifetime time.Duration
	PowerUpChance     float64
	SpeedMultiplier   float64
	PoolBomb          int
	PoolFlame         int
	PoolSpeed         int
}

// ChatConfig holds lobby chat limits.
type ChatConfig struct {
	HistorySize int
	MaxLength   int
}

// DefaultGame returns the default game configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		MapWidth:            15,
		MapHeight:           13,
		DestructibleDensity: 0.3,
		MaxPlayers:          4,
		MinPlayers:          2,
		GraceSeconds:        2,
		CountdownSeconds:    10,
		StartAckTimeout:     3 * time.Second,
		ResetDelay:          5 * time.Second,
		ReconnectGrace:      3 * time.Second,
		Player:              DefaultPlayer(),
		Bomb:                DefaultBomb(),
		Chat:                DefaultChat(),
	}
}

// DefaultPlayer returns the default player attributes.
func DefaultPlayer() PlayerConfig {
	return PlayerConfig{
		Lives:        3,
		Speed:        1.0,
		BombCount:    1,
		BombRange:    1,
		MoveCooldown: 200 * time.Millisecond, // matches the client's interpolation window
		RespawnDelay: time.Second,
		BlockPlayers: false,
	}
}

// DefaultBomb returns the default bomb and power-up tuning.
func DefaultBomb() BombConfig {
	return BombConfig{
		Fuse:              3 * time.Second,
		ExplosionLifetime: 500 * time.Millisecond,
		PowerUpChance:     0.3,
		SpeedMultiplier:   1.5,
		PoolBomb:          4,
		PoolFlame:         4,
		PoolSpeed:         2,
	}
}

// DefaultChat returns the default chat limits.
func DefaultChat() ChatConfig {
	return ChatConfig{
		HistorySize: 50,
		MaxLength:   200,
	}
}

// GameFromEnv returns game configuration with environment variable overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	// even sizes would leave a pillar column against the border wall
	if w := getEnvInt("MAP_WIDTH", 0); w >= 5 && w%2 == 1 {
		cfg.MapWidth = w
	}
	if h := getEnvInt("MAP_HEIGHT", 0); h >= 5 && h%2 == 1 {
		cfg.MapHeight = h
	}
	if d := getEnvFloat("DESTRUCTIBLE_DENSITY", -1); d >= 0 && d <= 1 {
		cfg.DestructibleDensity = d
	}
	if mp := getEnvInt("MAX_PLAYERS", 0); mp > 0 && mp <= 4 {
		cfg.MaxPlayers = mp
	}
	if mp := getEnvInt("MIN_PLAYERS", 0); mp > 0 {
		cfg.MinPlayers = mp
	}
	if cfg.MinPlayers > cfg.MaxPlayers {
		cfg.MinPlayers = cfg.MaxPlayers
	}
	if g := getEnvInt("WAITING_GRACE_SECONDS", -1); g >= 0 {
		cfg.GraceSeconds = g
	}
	if c := getEnvInt("COUNTDOWN_SECONDS", -1); c >= 0 {
		cfg.CountdownSeconds = c
	}
	cfg.StartAckTimeout = getEnvDuration("START_ACK_TIMEOUT_MS", cfg.StartAckTimeout)
	cfg.ResetDelay = getEnvDuration("RESET_DELAY_MS", cfg.ResetDelay)
	cfg.ReconnectGrace = getEnvDuration("RECONNECT_GRACE_MS", cfg.ReconnectGrace)
	if s := getEnvInt("GAME_SEED", 0); s != 0 {
		cfg.Seed = int64(s)
	}

	if l := getEnvInt("PLAYER_LIVES", 0); l > 0 {
		cfg.Player.Lives = l
	}
	cfg.Player.MoveCooldown = getEnvDuration("MOVE_COOLDOWN_MS", cfg.Player.MoveCooldown)
	cfg.Player.RespawnDelay = getEnvDuration("RESPAWN_DELAY_MS", cfg.Player.RespawnDelay)
	cfg.Player.BlockPlayers = getEnvBool("BLOCK_PLAYERS", cfg.Player.BlockPlayers)

	cfg.Bomb.Fuse = getEnvDuration("BOMB_FUSE_MS", cfg.Bomb.Fuse)
	cfg.Bomb.ExplosionLifetime = getEnvDuration("EXPLOSION_LIFETIME_MS", cfg.Bomb.ExplosionLifetime)
	if c := getEnvFloat("POWERUP_CHANCE", -1); c >= 0 && c <= 1 {
		cfg.Bomb.PowerUpChance = c
	}
	if m := getEnvFloat("SPEED_MULTIPLIER", 0); m >= 1 {
		cfg.Bomb.SpeedMultiplier = m
	}
	if n := getEnvInt("POOL_BOMB", -1); n >= 0 {
		cfg.Bomb.PoolBomb = n
	}
	if n := getEnvInt("POOL_FLAME", -1); n >= 0 {
		cfg.Bomb.PoolFlame = n
	}
	if n := getEnvInt("POOL_SPEED", -1); n >= 0 {
		cfg.Bomb.PoolSpeed = n
	}

	if n := getEnvInt("CHAT_HISTORY_SIZE", 0); n > 0 {
		cfg.Chat.HistorySize = n
	}
	if n := getEnvInt("CHAT_MAX_LENGTH", 0); n > 0 {
		cfg.Chat.MaxLength = n
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	StaticDir      string   // Browser client served at /
	AllowedOrigins []string // Extra CORS / WebSocket origins besides localhost
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:      8080, // the browser client dials ws://localhost:8080/ws
		StaticDir: "./client",
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		cfg.StaticDir = dir
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig holds logging, audit log and debug server settings.
type ObservabilityConfig struct {
	LogLevel           string
	EventLogPath       string // Empty disables the audit log
	DebugServer        bool
	DebugListenAddr    string
	AllowDebugExternal bool
	DebugUser          string // Optional basic auth for the debug server
	DebugPassword      string
}

// DefaultObservability returns the default observability configuration.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:        "info",
		EventLogPath:    "events.jsonl",
		DebugServer:     true,
		DebugListenAddr: "127.0.0.1:6060",
	}
}

// ObservabilityFromEnv returns observability configuration with environment overrides.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservability()

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if path, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = path
	}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.DebugServer = false
	}
	if addr := os.Getenv("DEBUG_LISTEN_ADDR"); addr != "" {
		cfg.DebugListenAddr = addr
	}
	cfg.AllowDebugExternal = getEnvBool("ALLOW_DEBUG_EXTERNAL", false)
	cfg.DebugUser = os.Getenv("DEBUG_USER")
	cfg.DebugPassword = os.Getenv("DEBUG_PASSWORD")

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Game          GameConfig
	Server        ServerConfig
	Observability ObservabilityConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Game:          GameFromEnv(),
		Server:        ServerFromEnv(),
		Observability: ObservabilityFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvDuration reads a millisecond count.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if ms := getEnvInt(key, -1); ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
