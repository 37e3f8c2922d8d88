package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fannielf/bomberman-dom-git/internal/api"
	"github.com/fannielf/bomberman-dom-git/internal/config"
	"github.com/fannielf/bomberman-dom-git/internal/game"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	appConfig := config.Load()
	gameCfg := appConfig.Game
	serverCfg := appConfig.Server
	obsCfg := appConfig.Observability

	setupLogging(obsCfg.LogLevel)

	log.Println("💣 ================================")
	log.Println("💣  BOMBERMAN - GO SERVER")
	log.Println("💣 ================================")

	log.Printf("🗺️ Map %dx%d, %d-%d players, %d lives, %ds countdown",
		gameCfg.MapWidth, gameCfg.MapHeight, gameCfg.MinPlayers, gameCfg.MaxPlayers,
		gameCfg.Player.Lives, gameCfg.CountdownSeconds)
	log.Printf("💥 Bomb fuse %v, explosion %v, power-up chance %.0f%%",
		gameCfg.Bomb.Fuse, gameCfg.Bomb.ExplosionLifetime, gameCfg.Bomb.PowerUpChance*100)

	// The hub is the engine's transport, so it exists first
	hub := api.NewWebSocketHub()
	engine := game.NewEngine(gameCfg, hub, game.EngineOptions{Metrics: api.GameMetrics{}})
	hub.Attach(engine)

	if obsCfg.EventLogPath != "" {
		if err := engine.StartEventLog(obsCfg.EventLogPath); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", obsCfg.EventLogPath)
		}
	}

	if err := api.StartDebugServer(obsCfg); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	engine.Start()
	log.Println("✅ Game Engine started")

	server := api.NewServer(engine, hub, serverCfg)
	addr := ":" + strconv.Itoa(serverCfg.Port)
	go func() {
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Stop(ctx)
	engine.Stop()
	engine.StopEventLog()
	log.Println("👋 Goodbye!")
}

// setupLogging applies LOG_LEVEL to logrus
func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Printf("⚠️ Unknown LOG_LEVEL %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
